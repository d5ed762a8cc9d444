package pgx

import (
	"context"

	"github.com/conceptlab/genea/pkg/common"
)

// SaveConcept upserts a concept on (document_id, lower(name)) so that
// re-ingesting a document updates definitions instead of duplicating rows.
func (s *Store) SaveConcept(ctx context.Context, concept *common.Concept) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(
		ctx,
		`INSERT INTO concepts (document_id, name, definition)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (document_id, lower(name))
		 DO UPDATE SET definition = EXCLUDED.definition
		 RETURNING id`,
		concept.DocumentID, concept.Name, concept.Definition,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetConcept(ctx context.Context, id int64) (*common.Concept, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var concept common.Concept
	err := s.pool.QueryRow(
		ctx,
		`SELECT id, document_id, name, definition
		 FROM concepts
		 WHERE id = $1`,
		id,
	).Scan(&concept.ID, &concept.DocumentID, &concept.Name, &concept.Definition)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &concept, nil
}

func (s *Store) GetConceptsByIDs(ctx context.Context, ids []int64) ([]common.Concept, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, document_id, name, definition
		 FROM concepts
		 WHERE id = ANY($1)
		 ORDER BY name ASC`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var concepts []common.Concept
	for rows.Next() {
		var concept common.Concept
		if err := rows.Scan(&concept.ID, &concept.DocumentID, &concept.Name, &concept.Definition); err != nil {
			return nil, err
		}
		concepts = append(concepts, concept)
	}
	return concepts, rows.Err()
}

// ListConcepts returns id and name for every concept, ordered by name.
func (s *Store) ListConcepts(ctx context.Context) ([]common.ConceptRef, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, name FROM concepts ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []common.ConceptRef
	for rows.Next() {
		var ref common.ConceptRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) SaveRelationship(ctx context.Context, rel *common.Relationship) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(
		ctx,
		`INSERT INTO relationships (document_id, source_concept_id, target_concept_id, relationship_type, justification)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		rel.DocumentID, rel.SourceConceptID, rel.TargetConceptID, rel.Type, rel.Justification,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListRelationshipsTouching returns relationships with either endpoint in
// conceptIDs.
func (s *Store) ListRelationshipsTouching(ctx context.Context, conceptIDs []int64) ([]common.Relationship, error) {
	if len(conceptIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, document_id, source_concept_id, target_concept_id, relationship_type, justification
		 FROM relationships
		 WHERE source_concept_id = ANY($1) OR target_concept_id = ANY($1)`,
		conceptIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []common.Relationship
	for rows.Next() {
		var rel common.Relationship
		err := rows.Scan(
			&rel.ID,
			&rel.DocumentID,
			&rel.SourceConceptID,
			&rel.TargetConceptID,
			&rel.Type,
			&rel.Justification,
		)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

func (s *Store) SaveFramework(ctx context.Context, framework *common.Framework) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(
		ctx,
		`INSERT INTO frameworks (document_id, name, framework_type, assumptions)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		framework.DocumentID, framework.Name, framework.Type, framework.Assumptions,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
