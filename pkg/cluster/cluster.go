// Package cluster groups concept vectors by cosine similarity and
// materializes the pairwise links of each group as connection rows.
package cluster

import (
	"context"
	"fmt"
	"math"

	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/logger"
)

// DefaultThreshold is the minimum cosine similarity for two concepts to
// land in the same cluster.
const DefaultThreshold = 0.8

// VectorStore is the slice of the store the engine needs.
type VectorStore interface {
	ListConceptVectors(ctx context.Context) ([]common.ConceptVector, error)
	SaveConnection(ctx context.Context, conn *common.Connection) error
}

// Result describes one clustering run. Clusters holds the concept ids of
// each cluster in the order they were seeded.
type Result struct {
	Vectors     int       `json:"vectors"`
	Clusters    [][]int64 `json:"clusters"`
	Connections int       `json:"connections"`
}

// Engine runs similarity clustering over all stored concept vectors.
type Engine struct {
	store     VectorStore
	threshold float64
}

func NewEngine(store VectorStore, threshold float64) *Engine {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Engine{
		store:     store,
		threshold: threshold,
	}
}

// CosineSimilarity computes the cosine of the angle between a and b. It
// returns 0 when either vector is all zeros or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Cluster partitions vectors greedily: each not-yet-assigned vector seeds a
// cluster and absorbs every later unassigned vector whose similarity to the
// seed exceeds threshold. Membership is decided against the seed, not
// against other members, so input order matters.
func Cluster(vectors []common.ConceptVector, threshold float64) [][]int {
	used := make([]bool, len(vectors))
	var clusters [][]int

	for i := range vectors {
		if used[i] {
			continue
		}
		used[i] = true
		group := []int{i}

		for j := i + 1; j < len(vectors); j++ {
			if used[j] {
				continue
			}
			if CosineSimilarity(vectors[i].Vector, vectors[j].Vector) > threshold {
				used[j] = true
				group = append(group, j)
			}
		}
		clusters = append(clusters, group)
	}
	return clusters
}

// Run loads every concept vector, clusters them and stores one connection
// per intra-cluster pair with the pair's true cosine similarity.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	vectors, err := e.store.ListConceptVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list concept vectors: %w", err)
	}

	clusters := Cluster(vectors, e.threshold)

	result := &Result{
		Vectors:  len(vectors),
		Clusters: make([][]int64, 0, len(clusters)),
	}
	for _, group := range clusters {
		ids := make([]int64, len(group))
		for n, idx := range group {
			ids[n] = vectors[idx].ConceptID
		}
		result.Clusters = append(result.Clusters, ids)

		for x := 0; x < len(group); x++ {
			for y := x + 1; y < len(group); y++ {
				a, b := vectors[group[x]], vectors[group[y]]
				conn := &common.Connection{
					ConceptA:        a.ConceptID,
					ConceptB:        b.ConceptID,
					SimilarityScore: CosineSimilarity(a.Vector, b.Vector),
				}
				if err := e.store.SaveConnection(ctx, conn); err != nil {
					return nil, fmt.Errorf("failed to save connection %d-%d: %w", a.ConceptID, b.ConceptID, err)
				}
				result.Connections++
			}
		}
	}

	logger.Info("clustering finished", "vectors", result.Vectors, "clusters", len(result.Clusters), "connections", result.Connections)
	return result, nil
}
