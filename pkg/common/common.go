package common

import "time"

// Document is an uploaded source text. Content holds the extracted plain
// text; SourceKey points at the archived original in object storage and may
// be empty for text-only uploads.
type Document struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SourceKey string    `json:"source_key,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationshipType classifies how two concepts relate to each other.
type RelationshipType string

const (
	RelationshipCitation    RelationshipType = "citation"
	RelationshipSemantic    RelationshipType = "semantic"
	RelationshipEmpirical   RelationshipType = "empirical"
	RelationshipEvolution   RelationshipType = "evolution"
	RelationshipInfluence   RelationshipType = "influence"
	RelationshipCritique    RelationshipType = "critique"
	RelationshipSupport     RelationshipType = "support"
	RelationshipTranslation RelationshipType = "translation"
)

// Concept is a named, defined unit of domain knowledge extracted from a
// document. Concepts are unique per (document, name) and immutable after
// ingestion, except for the vector attached asynchronously.
type Concept struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// ConceptRef is the lightweight listing shape for concepts.
type ConceptRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ConceptMatch is a nearest-neighbor search result.
type ConceptMatch struct {
	ConceptID int64   `json:"concept_id"`
	Score     float64 `json:"score"`
}

// Relationship is a directed, typed edge between two concepts of the same
// document. Both endpoints must exist before a relationship is persisted;
// the ingestion pipeline enforces this itself.
type Relationship struct {
	ID              int64            `json:"id"`
	DocumentID      int64            `json:"document_id"`
	SourceConceptID int64            `json:"source_concept_id"`
	TargetConceptID int64            `json:"target_concept_id"`
	Type            RelationshipType `json:"relationship_type"`
	Justification   string           `json:"justification"`
}

// FrameworkType distinguishes theoretical frameworks from methodological
// approaches.
type FrameworkType string

const (
	FrameworkTheoretical    FrameworkType = "theoretical"
	FrameworkMethodological FrameworkType = "methodological"
)

// Framework is a theoretical or methodological frame extracted from a
// document. It is attached to the document only, independent of concepts.
type Framework struct {
	ID          int64         `json:"id"`
	DocumentID  int64         `json:"document_id"`
	Name        string        `json:"name"`
	Assumptions string        `json:"assumptions"`
	Type        FrameworkType `json:"framework_type"`
}

// ConceptVector is the embedding attached to a concept. At most one live
// vector exists per concept; a concept may transiently have none.
type ConceptVector struct {
	ID        int64     `json:"id"`
	ConceptID int64     `json:"concept_id"`
	Vector    []float32 `json:"vector"`
}

// Connection is a derived intra-cluster edge produced by the clustering
// pass, carrying the pairwise cosine similarity of the two concepts.
type Connection struct {
	ID              int64   `json:"id"`
	ConceptA        int64   `json:"concept_a"`
	ConceptB        int64   `json:"concept_b"`
	SimilarityScore float64 `json:"similarity_score"`
}

// ItemCounts tracks per-item success and failure inside one ingestion run.
type ItemCounts struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// IngestionReport is the result of one ingestion run. Per-item failures are
// aggregated here instead of aborting the run; the report is the only
// signal for caller-driven retries.
type IngestionReport struct {
	Concepts      ItemCounts `json:"concepts"`
	Relationships ItemCounts `json:"relationships"`
	Frameworks    ItemCounts `json:"frameworks"`
	Vectors       ItemCounts `json:"vectors"`
}

// GraphNode is a node of the synthesized genealogy graph.
//
// Type is one of: main, related, influence, theoretical, methodological.
type GraphNode struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Type       string  `json:"type"`
	School     string  `json:"school"`
	Period     string  `json:"period"`
	Definition string  `json:"definition"`
	Importance float64 `json:"importance"`
}

// GraphEdge is a typed edge of the synthesized genealogy graph.
//
// Direction is one of: forward, backward, bidirectional.
type GraphEdge struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Type          string  `json:"type"`
	Direction     string  `json:"direction"`
	Strength      float64 `json:"strength"`
	Justification string  `json:"justification"`
}

// School is a school of thought grouping genealogy nodes.
type School struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// TimelinePeriod is one labeled span on the genealogy timeline.
type TimelinePeriod struct {
	Name         string `json:"name"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Significance string `json:"significance"`
}

// Timeline orders the historical periods covered by a genealogy graph.
type Timeline struct {
	Start   string           `json:"start"`
	End     string           `json:"end"`
	Periods []TimelinePeriod `json:"periods"`
}

// GenealogyGraph is the ephemeral presentation graph produced per analysis
// request. It is synthesized fresh every time and never persisted.
type GenealogyGraph struct {
	Nodes    []GraphNode `json:"nodes"`
	Edges    []GraphEdge `json:"edges"`
	Schools  []School    `json:"schools"`
	Timeline Timeline    `json:"timeline"`
}
