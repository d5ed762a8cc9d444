// Package ingest turns a stored document into concepts, relationships,
// frameworks and embeddings. A run is not transactional: every item is
// attempted and the outcome is tallied in an IngestionReport, so one bad
// relationship never throws away an otherwise good extraction.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/conceptlab/genea/pkg/ai"
	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/extract"
	"github.com/conceptlab/genea/pkg/logger"
)

// DocumentStore is the slice of the store the pipeline writes through.
type DocumentStore interface {
	GetDocument(ctx context.Context, id int64) (*common.Document, error)
	SaveConcept(ctx context.Context, concept *common.Concept) (int64, error)
	SaveRelationship(ctx context.Context, rel *common.Relationship) (int64, error)
	SaveFramework(ctx context.Context, framework *common.Framework) (int64, error)
	SaveConceptVector(ctx context.Context, vector *common.ConceptVector) error
}

// Pipeline extracts and persists the knowledge graph of a single document.
type Pipeline struct {
	ai          ai.GenealogyAIClient
	store       DocumentStore
	maxParallel int
}

// NewPipeline wires a pipeline. maxParallel caps concurrent embedding
// requests and defaults to 1 when non-positive.
func NewPipeline(aiClient ai.GenealogyAIClient, store DocumentStore, maxParallel int) *Pipeline {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Pipeline{
		ai:          aiClient,
		store:       store,
		maxParallel: maxParallel,
	}
}

type savedConcept struct {
	id         int64
	name       string
	definition string
}

// Ingest runs the full extraction for documentID and reports per-category
// success and failure counts. It fails outright only when the document
// cannot be loaded or no chunk of it yields a usable extraction.
func (p *Pipeline) Ingest(ctx context.Context, documentID int64) (*common.IngestionReport, error) {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %d: %w", documentID, err)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("document %d has no extracted text", documentID)
	}

	extraction, err := p.extractDocument(ctx, doc.Content)
	if err != nil {
		return nil, err
	}

	report := &common.IngestionReport{}
	nameToID := make(map[string]int64)
	var saved []savedConcept

	for _, item := range extraction.MainConcepts {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			report.Concepts.Failed++
			continue
		}
		id, err := p.store.SaveConcept(ctx, &common.Concept{
			DocumentID: documentID,
			Name:       name,
			Definition: item.Definition,
		})
		if err != nil {
			logger.Warn("failed to save concept", "document", documentID, "concept", name, "error", err)
			report.Concepts.Failed++
			continue
		}
		report.Concepts.Success++
		nameToID[strings.ToLower(name)] = id
		saved = append(saved, savedConcept{id: id, name: name, definition: item.Definition})
	}

	p.saveRelationships(ctx, documentID, extraction, nameToID, report)
	p.saveFrameworks(ctx, documentID, extraction, report)
	p.saveVectors(ctx, saved, report)

	logger.Info("document ingested",
		"document", documentID,
		"concepts", report.Concepts,
		"relationships", report.Relationships,
		"frameworks", report.Frameworks,
		"vectors", report.Vectors,
	)
	return report, nil
}

func (p *Pipeline) extractDocument(ctx context.Context, content string) (*extract.DocumentExtraction, error) {
	return p.extractChunks(ctx, splitChunks(content, defaultChunkTokens))
}

// extractChunks runs the extraction prompt per chunk and merges the
// results. A failed chunk loses only its own contribution; the run errors
// only when no chunk yields a usable extraction.
func (p *Pipeline) extractChunks(ctx context.Context, chunks []string) (*extract.DocumentExtraction, error) {
	merged := &extract.DocumentExtraction{}
	usable := 0
	var lastErr error

	for i, chunk := range chunks {
		raw, err := p.ai.GenerateStructured(
			ctx,
			"document_extraction",
			"Key concepts, relationships and frameworks extracted from an academic text",
			chunk,
			extract.DocumentExtraction{},
			ai.WithSystemPrompts(ai.DocumentExtractionPrompt),
			ai.WithTemperature(0.3),
			ai.WithMaxTokens(1500),
		)
		if err == nil {
			var part *extract.DocumentExtraction
			if part, err = extract.NormalizeDocumentExtraction(raw); err == nil {
				mergeExtraction(merged, part)
				usable++
				continue
			}
		}
		logger.Warn("chunk extraction failed", "chunk", i+1, "chunks", len(chunks), "error", err)
		lastErr = err
	}

	if usable == 0 {
		return nil, fmt.Errorf("extraction failed on all %d chunks: %w", len(chunks), lastErr)
	}
	return merged, nil
}

// mergeExtraction folds part into dst. Concepts are deduplicated case
// insensitively, first definition wins. The other lists concatenate.
func mergeExtraction(dst, part *extract.DocumentExtraction) {
	seen := make(map[string]bool, len(dst.MainConcepts))
	for _, c := range dst.MainConcepts {
		seen[strings.ToLower(strings.TrimSpace(c.Name))] = true
	}
	for _, c := range part.MainConcepts {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		dst.MainConcepts = append(dst.MainConcepts, c)
	}

	dst.Relationships = append(dst.Relationships, part.Relationships...)
	dst.TheoreticalFramework = append(dst.TheoreticalFramework, part.TheoreticalFramework...)
	dst.MethodologicalApproaches = append(dst.MethodologicalApproaches, part.MethodologicalApproaches...)
	dst.ConflictsAndSupports = append(dst.ConflictsAndSupports, part.ConflictsAndSupports...)
}

// saveRelationships resolves concept names to ids and stores every
// resolvable relationship. A relationship naming an unknown concept is a
// referential gap: logged, counted as failed and skipped.
func (p *Pipeline) saveRelationships(
	ctx context.Context,
	documentID int64,
	extraction *extract.DocumentExtraction,
	nameToID map[string]int64,
	report *common.IngestionReport,
) {
	save := func(sourceName, targetName, relType, justification string) {
		sourceID, okSource := nameToID[strings.ToLower(strings.TrimSpace(sourceName))]
		targetID, okTarget := nameToID[strings.ToLower(strings.TrimSpace(targetName))]
		if !okSource || !okTarget {
			logger.Warn("relationship references unknown concept",
				"document", documentID,
				"source", sourceName,
				"target", targetName,
			)
			report.Relationships.Failed++
			return
		}

		_, err := p.store.SaveRelationship(ctx, &common.Relationship{
			DocumentID:      documentID,
			SourceConceptID: sourceID,
			TargetConceptID: targetID,
			Type:            common.RelationshipType(relType),
			Justification:   justification,
		})
		if err != nil {
			logger.Warn("failed to save relationship", "document", documentID, "error", err)
			report.Relationships.Failed++
			return
		}
		report.Relationships.Success++
	}

	for _, rel := range extraction.Relationships {
		save(rel.Source, rel.Target, rel.Type, rel.Justification)
	}

	for _, item := range extraction.ConflictsAndSupports {
		if len(item.Concepts) < 2 {
			report.Relationships.Failed++
			continue
		}
		relType := string(common.RelationshipSupport)
		if item.Type == "conflict" {
			relType = string(common.RelationshipCritique)
		}
		save(item.Concepts[0], item.Concepts[1], relType, item.Explanation)
	}
}

func (p *Pipeline) saveFrameworks(
	ctx context.Context,
	documentID int64,
	extraction *extract.DocumentExtraction,
	report *common.IngestionReport,
) {
	save := func(name, frameworkType, assumptions string) {
		if strings.TrimSpace(name) == "" {
			report.Frameworks.Failed++
			return
		}
		_, err := p.store.SaveFramework(ctx, &common.Framework{
			DocumentID:  documentID,
			Name:        name,
			Type:        common.FrameworkType(frameworkType),
			Assumptions: assumptions,
		})
		if err != nil {
			logger.Warn("failed to save framework", "document", documentID, "framework", name, "error", err)
			report.Frameworks.Failed++
			return
		}
		report.Frameworks.Success++
	}

	for _, item := range extraction.TheoreticalFramework {
		save(item.Name, string(common.FrameworkTheoretical), item.Assumptions)
	}
	for _, item := range extraction.MethodologicalApproaches {
		save(item.Name, string(common.FrameworkMethodological), item.Characteristics)
	}
}

// saveVectors embeds "{name}: {definition}" for every saved concept. An
// embedding failure leaves the concept without a vector and moves on.
func (p *Pipeline) saveVectors(ctx context.Context, saved []savedConcept, report *common.IngestionReport) {
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.maxParallel)

	for _, concept := range saved {
		group.Go(func() error {
			input := fmt.Sprintf("%s: %s", concept.name, concept.definition)
			vector, err := p.ai.GenerateEmbedding(groupCtx, []byte(input))
			if err == nil {
				err = p.store.SaveConceptVector(groupCtx, &common.ConceptVector{
					ConceptID: concept.id,
					Vector:    vector,
				})
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("failed to embed concept", "concept", concept.id, "error", err)
				report.Vectors.Failed++
				return nil
			}
			report.Vectors.Success++
			return nil
		})
	}

	// Workers never return errors, the tally carries the failures.
	_ = group.Wait()
}
