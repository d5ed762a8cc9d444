// Package extract validates and repairs structured model output before it
// touches storage. The model is untrusted input: responses may arrive
// wrapped in code fences, double-encoded, missing keys or with cosmetic
// numeric fields out of range. The normalizer strips wrapping, enforces key
// presence and clamps rating fields instead of rejecting them.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/conceptlab/genea/pkg/ai"
	"github.com/conceptlab/genea/pkg/common"
)

var (
	// ErrMalformedExtraction signals output that is not JSON even after
	// fence stripping and repair.
	ErrMalformedExtraction = errors.New("malformed extraction output")

	// ErrSchemaViolation signals JSON output missing a required key or not
	// matching the expected shape.
	ErrSchemaViolation = errors.New("extraction output violates schema")
)

// ConceptItem is one extracted concept.
type ConceptItem struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// RelationshipItem is one extracted relationship, referencing concepts by
// name. Names are resolved to ids by the ingestion pipeline.
type RelationshipItem struct {
	Source        string `json:"source"`
	Target        string `json:"target"`
	Type          string `json:"type"`
	Justification string `json:"justification"`
}

// FrameworkItem is one extracted theoretical framework.
type FrameworkItem struct {
	Name        string `json:"name"`
	Assumptions string `json:"assumptions"`
}

// ApproachItem is one extracted methodological approach. Characteristics
// map onto the framework's assumptions column.
type ApproachItem struct {
	Name            string `json:"name"`
	Characteristics string `json:"characteristics"`
}

// ConflictItem is one extracted conflict-or-support pairing between two
// concepts.
type ConflictItem struct {
	Type        string   `json:"type"`
	Concepts    []string `json:"concepts"`
	Explanation string   `json:"explanation"`
}

// DocumentExtraction is the full shape of a document-extraction response.
// It doubles as the schema source for the structured provider call.
type DocumentExtraction struct {
	MainConcepts             []ConceptItem      `json:"main_concepts"`
	Relationships            []RelationshipItem `json:"relationships"`
	TheoreticalFramework     []FrameworkItem    `json:"theoretical_framework"`
	MethodologicalApproaches []ApproachItem     `json:"methodological_approaches"`
	ConflictsAndSupports     []ConflictItem     `json:"conflicts_and_supports"`
}

var documentExtractionKeys = []string{
	"main_concepts",
	"relationships",
	"theoretical_framework",
	"methodological_approaches",
	"conflicts_and_supports",
}

var genealogyKeys = []string{
	"nodes",
	"edges",
	"schools",
	"timeline",
}

// StripFences removes markdown code-fence wrapping from model output. The
// prompts forbid fences but the model is not trusted to comply.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line, including a language tag like ```json.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// NormalizeDocumentExtraction turns raw model output into a validated
// DocumentExtraction. It fails with ErrMalformedExtraction when the output
// is not JSON and with ErrSchemaViolation when a required top-level key is
// absent. It performs no I/O.
func NormalizeDocumentExtraction(raw string) (*DocumentExtraction, error) {
	cleaned := StripFences(raw)

	if err := requireKeys(cleaned, documentExtractionKeys); err != nil {
		return nil, err
	}

	var out DocumentExtraction
	if err := ai.UnmarshalFlexible(cleaned, &out); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSchemaViolation, err)
	}
	return &out, nil
}

// NormalizeGenealogy turns raw model output into a validated
// GenealogyGraph. Importance and strength are clamped into [1,5] rather
// than rejected; these fields are cosmetic and availability wins over
// strictness for them.
func NormalizeGenealogy(raw string) (*common.GenealogyGraph, error) {
	cleaned := StripFences(raw)

	if err := requireKeys(cleaned, genealogyKeys); err != nil {
		return nil, err
	}

	var out common.GenealogyGraph
	if err := ai.UnmarshalFlexible(cleaned, &out); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSchemaViolation, err)
	}

	for i := range out.Nodes {
		out.Nodes[i].Importance = clampScale(out.Nodes[i].Importance)
	}
	for i := range out.Edges {
		out.Edges[i].Strength = clampScale(out.Edges[i].Strength)
	}
	return &out, nil
}

func requireKeys(cleaned string, required []string) error {
	var fields map[string]json.RawMessage
	if err := ai.UnmarshalFlexible(cleaned, &fields); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedExtraction, err)
	}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%w: missing key %q", ErrSchemaViolation, key)
		}
	}
	return nil
}

func clampScale(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
