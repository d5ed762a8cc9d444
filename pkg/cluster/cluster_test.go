package cluster

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/conceptlab/genea/pkg/common"
)

type fakeVectorStore struct {
	vectors     []common.ConceptVector
	connections []common.Connection
}

func (f *fakeVectorStore) ListConceptVectors(ctx context.Context) ([]common.ConceptVector, error) {
	return f.vectors, nil
}

func (f *fakeVectorStore) SaveConnection(ctx context.Context, conn *common.Connection) error {
	f.connections = append(f.connections, *conn)
	return nil
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	if got, want := CosineSimilarity(a, a), 1.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("CosineSimilarity(a, a) = %v, want %v", got, want)
	}
	if got1, got2 := CosineSimilarity(a, b), CosineSimilarity(b, a); got1 != got2 {
		t.Fatalf("similarity not commutative: %v != %v", got1, got2)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors similarity = %v, want 0", got)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero vector similarity = %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{1}, []float32{1, 0}); got != 0 {
		t.Fatalf("length mismatch similarity = %v, want 0", got)
	}
}

func TestCluster_GroupsAboveThreshold(t *testing.T) {
	vectors := []common.ConceptVector{
		{ConceptID: 1, Vector: []float32{1, 0}},
		{ConceptID: 2, Vector: []float32{1, 0}},
		{ConceptID: 3, Vector: []float32{0, 1}},
	}

	clusters := Cluster(vectors, DefaultThreshold)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %v", len(clusters), clusters)
	}
	if len(clusters[0]) != 2 || clusters[0][0] != 0 || clusters[0][1] != 1 {
		t.Fatalf("unexpected first cluster: %v", clusters[0])
	}
	if len(clusters[1]) != 1 || clusters[1][0] != 2 {
		t.Fatalf("unexpected second cluster: %v", clusters[1])
	}
}

// Membership is decided against the seed, so the same vectors can cluster
// differently depending on order. Vectors at 0, 30 and 60 degrees: the 30
// degree vector is within the threshold of both others, which are not
// within it of each other.
func TestCluster_OrderSensitive(t *testing.T) {
	deg := func(d float64) []float32 {
		rad := d * math.Pi / 180
		return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
	}
	forward := []common.ConceptVector{
		{ConceptID: 1, Vector: deg(0)},
		{ConceptID: 2, Vector: deg(30)},
		{ConceptID: 3, Vector: deg(60)},
	}
	reversed := []common.ConceptVector{forward[2], forward[1], forward[0]}

	members := func(vectors []common.ConceptVector, clusters [][]int) [][]int64 {
		var out [][]int64
		for _, group := range clusters {
			ids := make([]int64, len(group))
			for n, idx := range group {
				ids[n] = vectors[idx].ConceptID
			}
			out = append(out, ids)
		}
		return out
	}

	// Seeded at 0 degrees, the 30 degree vector joins the seed and 60
	// degrees stands alone.
	got := members(forward, Cluster(forward, DefaultThreshold))
	if want := [][]int64{{1, 2}, {3}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("forward clusters = %v, want %v", got, want)
	}

	// Seeded at 60 degrees, the 30 degree vector is captured by the other
	// side instead.
	got = members(reversed, Cluster(reversed, DefaultThreshold))
	if want := [][]int64{{3, 2}, {1}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("reversed clusters = %v, want %v", got, want)
	}
}

func TestEngine_Run(t *testing.T) {
	store := &fakeVectorStore{
		vectors: []common.ConceptVector{
			{ConceptID: 10, Vector: []float32{1, 0}},
			{ConceptID: 11, Vector: []float32{0.9, 0.1}},
			{ConceptID: 12, Vector: []float32{0, 1}},
		},
	}
	engine := NewEngine(store, DefaultThreshold)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Vectors != 3 || result.Connections != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if want := [][]int64{{10, 11}, {12}}; !reflect.DeepEqual(result.Clusters, want) {
		t.Fatalf("cluster membership = %v, want %v", result.Clusters, want)
	}

	if len(store.connections) != 1 {
		t.Fatalf("expected 1 stored connection, got %d", len(store.connections))
	}
	conn := store.connections[0]
	if conn.ConceptA != 10 || conn.ConceptB != 11 {
		t.Fatalf("unexpected connection endpoints: %+v", conn)
	}
	want := CosineSimilarity([]float32{1, 0}, []float32{0.9, 0.1})
	if math.Abs(conn.SimilarityScore-want) > 1e-9 {
		t.Fatalf("similarity score = %v, want %v", conn.SimilarityScore, want)
	}
}

func TestEngine_Run_Empty(t *testing.T) {
	engine := NewEngine(&fakeVectorStore{}, DefaultThreshold)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Vectors != 0 || len(result.Clusters) != 0 || result.Connections != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
