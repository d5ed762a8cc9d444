package genealogy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/conceptlab/genea/pkg/ai"
	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/store"
)

type fakeAI struct {
	out        string
	err        error
	lastPrompt string
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeAI) GenerateStructured(ctx context.Context, name, description, prompt string, shape any, opts ...ai.GenerateOption) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, errors.New("not used")
}

func (f *fakeAI) ResetMetrics() {}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeReader struct {
	concepts map[int64]common.Concept
	vectors  map[int64][]float32
	matches  []common.ConceptMatch
}

func (f *fakeReader) GetConcept(ctx context.Context, id int64) (*common.Concept, error) {
	concept, ok := f.concepts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &concept, nil
}

func (f *fakeReader) GetConceptsByIDs(ctx context.Context, ids []int64) ([]common.Concept, error) {
	var out []common.Concept
	for _, id := range ids {
		if concept, ok := f.concepts[id]; ok {
			out = append(out, concept)
		}
	}
	return out, nil
}

func (f *fakeReader) GetConceptVector(ctx context.Context, conceptID int64) ([]float32, error) {
	vector, ok := f.vectors[conceptID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return vector, nil
}

func (f *fakeReader) NearestConcepts(ctx context.Context, vector []float32, threshold float64, k int, excludeConceptID int64) ([]common.ConceptMatch, error) {
	return f.matches, nil
}

const genealogyOut = `{
  "nodes": [
    {"id": "n1", "label": "Habitus", "type": "main", "school": "Practice Theory", "period": "1970s", "definition": "d", "importance": 5},
    {"id": "n2", "label": "Hexis", "type": "related", "school": "Practice Theory", "period": "1930s", "definition": "d", "importance": 3}
  ],
  "edges": [
    {"from": "n2", "to": "n1", "type": "evolution", "direction": "forward", "strength": 4, "justification": "j"}
  ],
  "schools": [{"name": "Practice Theory", "color": "#aabbcc", "description": "d"}],
  "timeline": {"start": "1930", "end": "1980", "periods": []}
}`

func newReader() *fakeReader {
	return &fakeReader{
		concepts: map[int64]common.Concept{
			1: {ID: 1, Name: "Habitus", Definition: "Embodied dispositions"},
			2: {ID: 2, Name: "Hexis", Definition: "Bodily bearing"},
		},
		vectors: map[int64][]float32{1: {1, 0}},
		matches: []common.ConceptMatch{{ConceptID: 2, Score: 0.91}},
	}
}

func TestAnalyze(t *testing.T) {
	client := &fakeAI{out: genealogyOut}
	engine := NewEngine(client, newReader())

	graph, err := engine.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(graph.Nodes) != 2 || len(graph.Edges) != 1 {
		t.Fatalf("unexpected graph shape: %d nodes, %d edges", len(graph.Nodes), len(graph.Edges))
	}

	var input analysisInput
	if err := json.Unmarshal([]byte(client.lastPrompt), &input); err != nil {
		t.Fatalf("prompt is not the expected JSON payload: %v", err)
	}
	if input.MainConcept.Name != "Habitus" {
		t.Fatalf("unexpected main concept: %+v", input.MainConcept)
	}
	if len(input.RelatedConcepts) != 1 || input.RelatedConcepts[0].Name != "Hexis" {
		t.Fatalf("unexpected related concepts: %+v", input.RelatedConcepts)
	}
}

func TestAnalyze_UnknownConcept(t *testing.T) {
	engine := NewEngine(&fakeAI{out: genealogyOut}, newReader())

	_, err := engine.Analyze(context.Background(), 99)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalyze_MissingVectorDegrades(t *testing.T) {
	reader := newReader()
	delete(reader.vectors, 1)
	client := &fakeAI{out: genealogyOut}
	engine := NewEngine(client, reader)

	graph, err := engine.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(graph.Nodes) == 0 {
		t.Fatal("expected a graph even without neighbors")
	}

	var input analysisInput
	if err := json.Unmarshal([]byte(client.lastPrompt), &input); err != nil {
		t.Fatalf("prompt is not the expected JSON payload: %v", err)
	}
	if len(input.RelatedConcepts) != 0 {
		t.Fatalf("expected no related concepts, got %+v", input.RelatedConcepts)
	}
}

func TestAnalyze_InsertsMissingMainNode(t *testing.T) {
	out := `{
  "nodes": [
    {"id": "n2", "label": "Hexis", "type": "related", "school": "s", "period": "p", "definition": "d", "importance": 3}
  ],
  "edges": [],
  "schools": [],
  "timeline": {"start": "1930", "end": "1980", "periods": []}
}`
	engine := NewEngine(&fakeAI{out: out}, newReader())

	graph, err := engine.Analyze(context.Background(), 1)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(graph.Nodes) != 2 {
		t.Fatalf("expected injected main node, got %d nodes", len(graph.Nodes))
	}
	main := graph.Nodes[0]
	if main.Type != "main" || main.Label != "Habitus" || main.ID == "" {
		t.Fatalf("unexpected main node: %+v", main)
	}
}

func TestAnalyze_RejectsMalformedOutput(t *testing.T) {
	engine := NewEngine(&fakeAI{out: "cannot comply"}, newReader())

	if _, err := engine.Analyze(context.Background(), 1); err == nil {
		t.Fatal("expected error for malformed output")
	}
}
