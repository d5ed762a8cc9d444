// Package genealogy synthesizes a genealogy graph for a single concept
// from its stored definition and its semantic neighborhood.
package genealogy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/conceptlab/genea/pkg/ai"
	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/extract"
	"github.com/conceptlab/genea/pkg/logger"
	"github.com/conceptlab/genea/pkg/store"
)

const (
	// MatchThreshold is the minimum cosine similarity for a concept to
	// count as a semantic neighbor of the analyzed concept.
	MatchThreshold = 0.7

	// MatchCount caps how many neighbors feed the analysis.
	MatchCount = 5
)

// ConceptReader is the slice of the store the engine reads from.
type ConceptReader interface {
	GetConcept(ctx context.Context, id int64) (*common.Concept, error)
	GetConceptsByIDs(ctx context.Context, ids []int64) ([]common.Concept, error)
	GetConceptVector(ctx context.Context, conceptID int64) ([]float32, error)
	NearestConcepts(
		ctx context.Context,
		vector []float32,
		threshold float64,
		k int,
		excludeConceptID int64,
	) ([]common.ConceptMatch, error)
}

// Engine produces genealogy graphs. It never writes to the store.
type Engine struct {
	ai    ai.GenealogyAIClient
	store ConceptReader
}

func NewEngine(aiClient ai.GenealogyAIClient, store ConceptReader) *Engine {
	return &Engine{
		ai:    aiClient,
		store: store,
	}
}

type promptConcept struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

type analysisInput struct {
	MainConcept     promptConcept   `json:"main_concept"`
	RelatedConcepts []promptConcept `json:"related_concepts"`
}

// Analyze builds a genealogy graph for conceptID. A concept without an
// embedding is analyzed from its definition alone; the result is degraded
// but still a valid graph. The returned graph always contains a node for
// the analyzed concept.
func (e *Engine) Analyze(ctx context.Context, conceptID int64) (*common.GenealogyGraph, error) {
	concept, err := e.store.GetConcept(ctx, conceptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("concept %d: %w", conceptID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load concept %d: %w", conceptID, err)
	}

	related, err := e.relatedConcepts(ctx, conceptID)
	if err != nil {
		return nil, err
	}

	input := analysisInput{
		MainConcept: promptConcept{Name: concept.Name, Definition: concept.Definition},
	}
	for _, rc := range related {
		input.RelatedConcepts = append(input.RelatedConcepts, promptConcept{
			Name:       rc.Name,
			Definition: rc.Definition,
		})
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis input: %w", err)
	}

	raw, err := e.ai.GenerateStructured(
		ctx,
		"concept_genealogy",
		"Genealogy graph of a concept and its semantic neighbors",
		string(payload),
		common.GenealogyGraph{},
		ai.WithSystemPrompts(ai.ConceptGenealogyPrompt),
		ai.WithTemperature(0.3),
	)
	if err != nil {
		return nil, fmt.Errorf("genealogy generation failed for concept %d: %w", conceptID, err)
	}

	graph, err := extract.NormalizeGenealogy(raw)
	if err != nil {
		return nil, fmt.Errorf("genealogy output rejected for concept %d: %w", conceptID, err)
	}

	ensureMainNode(graph, concept)
	return graph, nil
}

// relatedConcepts resolves the semantic neighborhood of a concept. Missing
// vector means no neighborhood, not an error.
func (e *Engine) relatedConcepts(ctx context.Context, conceptID int64) ([]common.Concept, error) {
	vector, err := e.store.GetConceptVector(ctx, conceptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warn("concept has no embedding, analyzing without neighbors", "concept", conceptID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load vector for concept %d: %w", conceptID, err)
	}

	matches, err := e.store.NearestConcepts(ctx, vector, MatchThreshold, MatchCount, conceptID)
	if err != nil {
		return nil, fmt.Errorf("neighbor search failed for concept %d: %w", conceptID, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.ConceptID)
	}
	return e.store.GetConceptsByIDs(ctx, ids)
}

// ensureMainNode guarantees the analyzed concept appears in the graph even
// when the model drops it.
func ensureMainNode(graph *common.GenealogyGraph, concept *common.Concept) {
	for _, node := range graph.Nodes {
		if node.Type == "main" || strings.EqualFold(node.Label, concept.Name) {
			return
		}
	}

	graph.Nodes = append([]common.GraphNode{{
		ID:         gonanoid.Must(),
		Label:      concept.Name,
		Type:       "main",
		Definition: concept.Definition,
		Importance: 5,
	}}, graph.Nodes...)
}
