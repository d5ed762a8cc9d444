package pgx

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/conceptlab/genea/pkg/common"
)

// SaveConceptVector upserts the embedding for a concept. A concept carries
// at most one live vector.
func (s *Store) SaveConceptVector(ctx context.Context, vector *common.ConceptVector) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO concept_vectors (concept_id, vector)
		 VALUES ($1, $2)
		 ON CONFLICT (concept_id)
		 DO UPDATE SET vector = EXCLUDED.vector`,
		vector.ConceptID, pgvector.NewVector(vector.Vector),
	)
	return err
}

func (s *Store) GetConceptVector(ctx context.Context, conceptID int64) ([]float32, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var vec pgvector.Vector
	err := s.pool.QueryRow(
		ctx,
		`SELECT vector FROM concept_vectors WHERE concept_id = $1`,
		conceptID,
	).Scan(&vec)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return vec.Slice(), nil
}

func (s *Store) ListConceptVectors(ctx context.Context) ([]common.ConceptVector, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, concept_id, vector FROM concept_vectors ORDER BY id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vectors []common.ConceptVector
	for rows.Next() {
		var (
			cv  common.ConceptVector
			vec pgvector.Vector
		)
		if err := rows.Scan(&cv.ID, &cv.ConceptID, &vec); err != nil {
			return nil, err
		}
		cv.Vector = vec.Slice()
		vectors = append(vectors, cv)
	}
	return vectors, rows.Err()
}

// NearestConcepts runs a cosine similarity search over concept vectors. The
// `<=>` operator yields cosine distance, so similarity is 1 - distance.
func (s *Store) NearestConcepts(
	ctx context.Context,
	vector []float32,
	threshold float64,
	k int,
	excludeConceptID int64,
) ([]common.ConceptMatch, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	query := pgvector.NewVector(vector)
	rows, err := s.pool.Query(
		ctx,
		`SELECT concept_id, 1 - (vector <=> $1) AS score
		 FROM concept_vectors
		 WHERE concept_id <> $2 AND 1 - (vector <=> $1) > $3
		 ORDER BY vector <=> $1 ASC
		 LIMIT $4`,
		query, excludeConceptID, threshold, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []common.ConceptMatch
	for rows.Next() {
		var match common.ConceptMatch
		if err := rows.Scan(&match.ConceptID, &match.Score); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (s *Store) SaveConnection(ctx context.Context, conn *common.Connection) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO connections (concept_a, concept_b, similarity_score)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (concept_a, concept_b)
		 DO UPDATE SET similarity_score = EXCLUDED.similarity_score`,
		conn.ConceptA, conn.ConceptB, conn.SimilarityScore,
	)
	return err
}

func (s *Store) ListConnectionsAmong(ctx context.Context, conceptIDs []int64) ([]common.Connection, error) {
	if len(conceptIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, concept_a, concept_b, similarity_score
		 FROM connections
		 WHERE concept_a = ANY($1) AND concept_b = ANY($1)`,
		conceptIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []common.Connection
	for rows.Next() {
		var conn common.Connection
		if err := rows.Scan(&conn.ID, &conn.ConceptA, &conn.ConceptB, &conn.SimilarityScore); err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}
