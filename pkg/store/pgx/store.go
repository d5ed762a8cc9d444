// Package pgx implements store.ConceptStore on Postgres with pgvector.
// Vector similarity search runs server-side through the `<=>` cosine
// distance operator.
package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/conceptlab/genea/internal/util"
	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/store"
)

// Store is a Postgres-backed ConceptStore. Create one with New.
type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// New creates a Store on top of an existing connection pool. The pool must
// have pgvector types registered (pgxvec.RegisterTypes in AfterConnect).
// Every operation is bounded by STORE_TIMEOUT_SEC (default 30).
func New(pool *pgxpool.Pool) *Store {
	timeoutSec := int(util.GetEnvNumeric("STORE_TIMEOUT_SEC", 30))
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	return &Store{
		pool:    pool,
		timeout: time.Duration(timeoutSec) * time.Second,
	}
}

// Connect opens a pool against DATABASE_URL with pgvector types registered
// on every connection. The database may still be starting up, so the
// initial ping is retried.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	return util.RetryWithContext(ctx, 5, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			time.Sleep(2 * time.Second)
			return nil, err
		}
		return pool, nil
	})
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func wrapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// SaveDocument inserts a document row and returns its id.
func (s *Store) SaveDocument(ctx context.Context, doc *common.Document) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(
		ctx,
		`INSERT INTO documents (name, source_key, content)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		doc.Name, doc.SourceKey, doc.Content,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetDocument loads a document including its extracted content.
func (s *Store) GetDocument(ctx context.Context, id int64) (*common.Document, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var doc common.Document
	err := s.pool.QueryRow(
		ctx,
		`SELECT id, name, source_key, content, created_at
		 FROM documents
		 WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Name, &doc.SourceKey, &doc.Content, &doc.CreatedAt)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first, without content.
func (s *Store) ListDocuments(ctx context.Context) ([]common.Document, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(
		ctx,
		`SELECT id, name, source_key, created_at
		 FROM documents
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []common.Document
	for rows.Next() {
		var doc common.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.SourceKey, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateDocumentContent replaces a document's extracted text, used when
// the text is re-derived from the archived original.
func (s *Store) UpdateDocumentContent(ctx context.Context, id int64, content string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(
		ctx,
		`UPDATE documents SET content = $2 WHERE id = $1`,
		id, content,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document; concepts, relationships, frameworks
// and vectors cascade at the schema level.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
