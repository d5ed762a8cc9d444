package store

import (
	"context"
	"errors"

	"github.com/conceptlab/genea/pkg/common"
)

// ErrNotFound is returned when a requested row does not exist. Handlers map
// it to 404.
var ErrNotFound = errors.New("not found")

// ConceptStore is the persistence boundary for documents, concepts,
// relationships, frameworks, vectors and derived connections, plus the
// server-side nearest-neighbor search over concept vectors.
//
// The ingestion pipeline and the clustering engine are the only writers;
// the genealogy query engine only reads.
type ConceptStore interface {
	SaveDocument(ctx context.Context, doc *common.Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (*common.Document, error)
	ListDocuments(ctx context.Context) ([]common.Document, error)
	UpdateDocumentContent(ctx context.Context, id int64, content string) error
	DeleteDocument(ctx context.Context, id int64) error

	// SaveConcept upserts on (document_id, lower(name)) and returns the
	// id of the new or existing row, keeping re-ingestion of a document
	// idempotent.
	SaveConcept(ctx context.Context, concept *common.Concept) (int64, error)
	GetConcept(ctx context.Context, id int64) (*common.Concept, error)
	GetConceptsByIDs(ctx context.Context, ids []int64) ([]common.Concept, error)
	ListConcepts(ctx context.Context) ([]common.ConceptRef, error)

	SaveRelationship(ctx context.Context, rel *common.Relationship) (int64, error)
	ListRelationshipsTouching(ctx context.Context, conceptIDs []int64) ([]common.Relationship, error)

	SaveFramework(ctx context.Context, framework *common.Framework) (int64, error)

	SaveConceptVector(ctx context.Context, vector *common.ConceptVector) error
	GetConceptVector(ctx context.Context, conceptID int64) ([]float32, error)
	ListConceptVectors(ctx context.Context) ([]common.ConceptVector, error)

	// NearestConcepts returns up to k concepts whose vectors score above
	// threshold in cosine similarity to the query vector, excluding
	// excludeConceptID. An empty result is valid, not an error.
	NearestConcepts(
		ctx context.Context,
		vector []float32,
		threshold float64,
		k int,
		excludeConceptID int64,
	) ([]common.ConceptMatch, error)

	SaveConnection(ctx context.Context, conn *common.Connection) error

	// ListConnectionsAmong returns the stored similarity connections whose
	// both endpoints are in conceptIDs.
	ListConnectionsAmong(ctx context.Context, conceptIDs []int64) ([]common.Connection, error)
}
