package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/conceptlab/genea/pkg/ai"
	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/store"
)

type fakeAI struct {
	structuredOut string
	structuredErr error
	embedErr      error
	embedCalls    int
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeAI) GenerateStructured(ctx context.Context, name, description, prompt string, shape any, opts ...ai.GenerateOption) (string, error) {
	if f.structuredErr != nil {
		return "", f.structuredErr
	}
	return f.structuredOut, nil
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeAI) ResetMetrics() {}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeStore struct {
	doc *common.Document

	nextID        int64
	conceptIDs    map[string]int64
	relationships []common.Relationship
	frameworks    []common.Framework
	vectors       map[int64][]float32

	conceptErr error
	vectorErr  error
}

func newFakeStore(content string) *fakeStore {
	return &fakeStore{
		doc:        &common.Document{ID: 1, Name: "doc.txt", Content: content},
		conceptIDs: make(map[string]int64),
		vectors:    make(map[int64][]float32),
	}
}

func (f *fakeStore) GetDocument(ctx context.Context, id int64) (*common.Document, error) {
	if f.doc == nil || f.doc.ID != id {
		return nil, store.ErrNotFound
	}
	return f.doc, nil
}

func (f *fakeStore) SaveConcept(ctx context.Context, concept *common.Concept) (int64, error) {
	if f.conceptErr != nil {
		return 0, f.conceptErr
	}
	key := strings.ToLower(concept.Name)
	if id, ok := f.conceptIDs[key]; ok {
		return id, nil
	}
	f.nextID++
	f.conceptIDs[key] = f.nextID
	return f.nextID, nil
}

func (f *fakeStore) SaveRelationship(ctx context.Context, rel *common.Relationship) (int64, error) {
	f.relationships = append(f.relationships, *rel)
	return int64(len(f.relationships)), nil
}

func (f *fakeStore) SaveFramework(ctx context.Context, framework *common.Framework) (int64, error) {
	f.frameworks = append(f.frameworks, *framework)
	return int64(len(f.frameworks)), nil
}

func (f *fakeStore) SaveConceptVector(ctx context.Context, vector *common.ConceptVector) error {
	if f.vectorErr != nil {
		return f.vectorErr
	}
	f.vectors[vector.ConceptID] = vector.Vector
	return nil
}

const extractionOut = `{
  "main_concepts": [
    {"name": "Habitus", "definition": "Embodied dispositions"},
    {"name": "Field", "definition": "Structured social arena"}
  ],
  "relationships": [
    {"source": "Habitus", "target": "Field", "type": "semantic", "justification": "operates within"},
    {"source": "Habitus", "target": "Doxa", "type": "citation", "justification": "endpoint never extracted"}
  ],
  "theoretical_framework": [
    {"name": "Practice Theory", "assumptions": "co-constitution"}
  ],
  "methodological_approaches": [
    {"name": "Ethnography", "characteristics": "participant observation"}
  ],
  "conflicts_and_supports": [
    {"type": "conflict", "concepts": ["Habitus", "Field"], "explanation": "tension"}
  ]
}`

func TestIngest_FullReport(t *testing.T) {
	st := newFakeStore("some document text")
	pipeline := NewPipeline(&fakeAI{structuredOut: extractionOut}, st, 2)

	report, err := pipeline.Ingest(context.Background(), 1)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if report.Concepts.Success != 2 || report.Concepts.Failed != 0 {
		t.Fatalf("unexpected concept counts: %+v", report.Concepts)
	}
	// One resolvable relationship, one conflict pairing, one referential gap.
	if report.Relationships.Success != 2 || report.Relationships.Failed != 1 {
		t.Fatalf("unexpected relationship counts: %+v", report.Relationships)
	}
	if report.Frameworks.Success != 2 {
		t.Fatalf("unexpected framework counts: %+v", report.Frameworks)
	}
	if report.Vectors.Success != 2 || report.Vectors.Failed != 0 {
		t.Fatalf("unexpected vector counts: %+v", report.Vectors)
	}

	if len(st.relationships) != 2 {
		t.Fatalf("expected 2 stored relationships, got %d", len(st.relationships))
	}
	if st.relationships[1].Type != common.RelationshipCritique {
		t.Fatalf("expected conflict mapped to critique, got %q", st.relationships[1].Type)
	}
	if st.frameworks[1].Type != common.FrameworkMethodological {
		t.Fatalf("expected methodological framework, got %q", st.frameworks[1].Type)
	}
	if len(st.vectors) != 2 {
		t.Fatalf("expected 2 stored vectors, got %d", len(st.vectors))
	}
}

func TestIngest_DocumentNotFound(t *testing.T) {
	st := newFakeStore("text")
	pipeline := NewPipeline(&fakeAI{structuredOut: extractionOut}, st, 1)

	_, err := pipeline.Ingest(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIngest_EmptyContent(t *testing.T) {
	st := newFakeStore("   ")
	pipeline := NewPipeline(&fakeAI{structuredOut: extractionOut}, st, 1)

	if _, err := pipeline.Ingest(context.Background(), 1); err == nil {
		t.Fatal("expected error for document without text")
	}
}

func TestIngest_MalformedExtraction(t *testing.T) {
	st := newFakeStore("text")
	pipeline := NewPipeline(&fakeAI{structuredOut: "sorry, no"}, st, 1)

	_, err := pipeline.Ingest(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for malformed extraction")
	}
	if len(st.conceptIDs) != 0 {
		t.Fatalf("nothing should be stored, got %d concepts", len(st.conceptIDs))
	}
}

func TestIngest_EmbeddingFailureDoesNotAbort(t *testing.T) {
	st := newFakeStore("text")
	pipeline := NewPipeline(&fakeAI{structuredOut: extractionOut, embedErr: errors.New("model down")}, st, 1)

	report, err := pipeline.Ingest(context.Background(), 1)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.Concepts.Success != 2 {
		t.Fatalf("unexpected concept counts: %+v", report.Concepts)
	}
	if report.Vectors.Success != 0 || report.Vectors.Failed != 2 {
		t.Fatalf("unexpected vector counts: %+v", report.Vectors)
	}
}

func TestIngest_Idempotent(t *testing.T) {
	st := newFakeStore("text")
	pipeline := NewPipeline(&fakeAI{structuredOut: extractionOut}, st, 1)

	first, err := pipeline.Ingest(context.Background(), 1)
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	second, err := pipeline.Ingest(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	if first.Concepts != second.Concepts {
		t.Fatalf("concept counts changed across runs: %+v vs %+v", first.Concepts, second.Concepts)
	}
	if len(st.conceptIDs) != 2 {
		t.Fatalf("expected 2 distinct concepts after re-ingestion, got %d", len(st.conceptIDs))
	}
}

// flakyAI returns prose for the first structured call and valid output
// afterwards.
type flakyAI struct {
	fakeAI
	calls int
}

func (f *flakyAI) GenerateStructured(ctx context.Context, name, description, prompt string, shape any, opts ...ai.GenerateOption) (string, error) {
	f.calls++
	if f.calls == 1 {
		return "I could not find any concepts, sorry.", nil
	}
	return extractionOut, nil
}

func TestExtractChunks_FailedChunkIsSkipped(t *testing.T) {
	client := &flakyAI{}
	pipeline := NewPipeline(client, newFakeStore("text"), 1)

	merged, err := pipeline.extractChunks(context.Background(), []string{"first part", "second part"})
	if err != nil {
		t.Fatalf("extractChunks() error = %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected both chunks attempted, got %d calls", client.calls)
	}
	if len(merged.MainConcepts) != 2 {
		t.Fatalf("expected concepts from the good chunk, got %+v", merged.MainConcepts)
	}
}

func TestExtractChunks_AllChunksFailed(t *testing.T) {
	pipeline := NewPipeline(&fakeAI{structuredOut: "still no json"}, newFakeStore("text"), 1)

	if _, err := pipeline.extractChunks(context.Background(), []string{"first part", "second part"}); err == nil {
		t.Fatal("expected error when every chunk fails")
	}
}

func TestSplitChunks_ShortTextSingleChunk(t *testing.T) {
	chunks := splitChunks("a short paragraph", defaultChunkTokens)
	if len(chunks) != 1 || chunks[0] != "a short paragraph" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitChunks_SplitsOnParagraphs(t *testing.T) {
	paragraph := strings.Repeat("concept genealogy ", 40)
	text := strings.Join([]string{paragraph, paragraph, paragraph}, "\n\n")

	chunks := splitChunks(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
}
