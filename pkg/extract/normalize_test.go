package extract

import (
	"errors"
	"testing"
)

const validExtraction = `{
  "main_concepts": [
    {"name": "Habitus", "definition": "Embodied dispositions shaping practice"},
    {"name": "Field", "definition": "A structured social arena of positions"}
  ],
  "relationships": [
    {"source": "Habitus", "target": "Field", "type": "semantic", "justification": "Habitus operates within fields"}
  ],
  "theoretical_framework": [
    {"name": "Practice Theory", "assumptions": "Agency and structure are co-constitutive"}
  ],
  "methodological_approaches": [
    {"name": "Ethnography", "characteristics": "Long-term participant observation"}
  ],
  "conflicts_and_supports": []
}`

func TestNormalizeDocumentExtraction_Valid(t *testing.T) {
	out, err := NormalizeDocumentExtraction(validExtraction)
	if err != nil {
		t.Fatalf("NormalizeDocumentExtraction() error = %v", err)
	}
	if len(out.MainConcepts) != 2 {
		t.Fatalf("expected 2 concepts, got %d", len(out.MainConcepts))
	}
	if out.MainConcepts[0].Name != "Habitus" {
		t.Fatalf("expected first concept Habitus, got %q", out.MainConcepts[0].Name)
	}
	if len(out.Relationships) != 1 || out.Relationships[0].Type != "semantic" {
		t.Fatalf("unexpected relationships: %+v", out.Relationships)
	}
	if len(out.MethodologicalApproaches) != 1 || out.MethodologicalApproaches[0].Characteristics == "" {
		t.Fatalf("unexpected methodological approaches: %+v", out.MethodologicalApproaches)
	}
}

func TestNormalizeDocumentExtraction_CodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "json fence", input: "```json\n" + validExtraction + "\n```"},
		{name: "bare fence", input: "```\n" + validExtraction + "\n```"},
		{name: "fence with trailing whitespace", input: "```json\n" + validExtraction + "\n```\n\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := NormalizeDocumentExtraction(tc.input)
			if err != nil {
				t.Fatalf("NormalizeDocumentExtraction() error = %v", err)
			}
			if len(out.MainConcepts) != 2 {
				t.Fatalf("expected 2 concepts, got %d", len(out.MainConcepts))
			}
		})
	}
}

func TestNormalizeDocumentExtraction_MissingKey(t *testing.T) {
	input := `{
  "main_concepts": [],
  "relationships": [],
  "theoretical_framework": [],
  "methodological_approaches": []
}`
	_, err := NormalizeDocumentExtraction(input)
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestNormalizeDocumentExtraction_NotJSON(t *testing.T) {
	_, err := NormalizeDocumentExtraction("I could not analyze this document.")
	if !errors.Is(err, ErrMalformedExtraction) {
		t.Fatalf("expected ErrMalformedExtraction, got %v", err)
	}
}

func TestNormalizeGenealogy_ClampsScales(t *testing.T) {
	input := `{
  "nodes": [
    {"id": "n1", "label": "Habitus", "type": "main", "school": "Practice Theory", "period": "1970s", "definition": "d", "importance": 9},
    {"id": "n2", "label": "Hexis", "type": "related", "school": "Practice Theory", "period": "1930s", "definition": "d", "importance": 0}
  ],
  "edges": [
    {"from": "n2", "to": "n1", "type": "evolution", "direction": "forward", "strength": -3, "justification": "j"}
  ],
  "schools": [{"name": "Practice Theory", "color": "#aabbcc", "description": "d"}],
  "timeline": {"start": "1930", "end": "1980", "periods": []}
}`
	out, err := NormalizeGenealogy(input)
	if err != nil {
		t.Fatalf("NormalizeGenealogy() error = %v", err)
	}
	if out.Nodes[0].Importance != 5 {
		t.Fatalf("expected importance clamped to 5, got %v", out.Nodes[0].Importance)
	}
	if out.Nodes[1].Importance != 1 {
		t.Fatalf("expected importance clamped to 1, got %v", out.Nodes[1].Importance)
	}
	if out.Edges[0].Strength != 1 {
		t.Fatalf("expected strength clamped to 1, got %v", out.Edges[0].Strength)
	}
}

func TestNormalizeGenealogy_MissingKey(t *testing.T) {
	input := `{"nodes": [], "edges": [], "schools": []}`
	_, err := NormalizeGenealogy(input)
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no fences", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "single line fence", input: "```{\"a\":1}```", want: `{"a":1}`},
		{name: "surrounding whitespace", input: "  ```json\n{\"a\":1}\n```  ", want: `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFences(tc.input); got != tc.want {
				t.Fatalf("StripFences() = %q, want %q", got, tc.want)
			}
		})
	}
}
