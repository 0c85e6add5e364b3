package cluster

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/core/vector"
	"github.com/agenthands/archetypes/internal/logging"
)

func newTestClusterer(cfg Config, seed uint64) *Clusterer {
	c := NewClusterer(cfg, FixedSeed(seed), logging.Discard())
	n := 0
	c.NewID = func() string {
		n++
		return fmt.Sprintf("cluster-%d", n)
	}
	c.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

// jittered returns n embeddings around base with small deterministic noise.
func jittered(prefix string, base []float32, n int, noise float32, seed uint64) []model.Embedding {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]model.Embedding, n)
	for i := range out {
		v := make([]float32, len(base))
		for d := range base {
			v[d] = base[d] + (rng.Float32()*2-1)*noise
		}
		out[i] = model.Embedding{ContentID: fmt.Sprintf("%s-%d", prefix, i), Vector: v}
	}
	return out
}

func TestCluster_Empty(t *testing.T) {
	c := newTestClusterer(DefaultConfig(), 1)
	clusters, err := c.Cluster(nil)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestCluster_NearIdenticalFormOneCluster(t *testing.T) {
	c := newTestClusterer(DefaultConfig(), 7)
	embeddings := jittered("a", []float32{1, 0.5, 0.2, 0.8}, 12, 0.001, 3)

	clusters, err := c.Cluster(embeddings)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].MemberIDs, 12)
	assert.Greater(t, clusters[0].Cohesion, 0.95)
}

func TestCluster_TooFewPointsYieldsNothing(t *testing.T) {
	c := newTestClusterer(DefaultConfig(), 7)
	embeddings := []model.Embedding{
		{ContentID: "x", Vector: []float32{1, 0, 0}},
		{ContentID: "y", Vector: []float32{0, 1, 0}},
		{ContentID: "z", Vector: []float32{0, 0, 1}},
	}

	clusters, err := c.Cluster(embeddings)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestCluster_SingleClusterPathComputesCohesion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinClusterSize = 2
	c := newTestClusterer(cfg, 7)
	embeddings := []model.Embedding{
		{ContentID: "x", Vector: []float32{1, 0}},
		{ContentID: "y", Vector: []float32{0, 1}},
		{ContentID: "z", Vector: []float32{1, 1}},
	}

	clusters, err := c.Cluster(embeddings)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"x", "y", "z"}, clusters[0].MemberIDs)
	assert.Less(t, clusters[0].Cohesion, 1.0)
	assert.GreaterOrEqual(t, clusters[0].Cohesion, 0.0)
}

func TestCluster_SeparatesDistinctGroups(t *testing.T) {
	c := newTestClusterer(DefaultConfig(), 11)
	embeddings := append(
		jittered("a", []float32{1, 0, 0}, 10, 0.01, 1),
		jittered("b", []float32{0, 1, 0}, 10, 0.01, 2)...,
	)

	clusters, err := c.Cluster(embeddings)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	for _, cl := range clusters {
		assert.Len(t, cl.MemberIDs, 10)
		prefix := cl.MemberIDs[0][:1]
		for _, id := range cl.MemberIDs {
			assert.Equal(t, prefix, id[:1], "cluster mixes groups")
		}
	}
}

func TestCluster_DeterministicWithFixedSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeThreshold = 0
	embeddings := append(
		jittered("a", []float32{1, 0, 0}, 15, 0.3, 1),
		jittered("b", []float32{0, 1, 0}, 15, 0.3, 2)...,
	)

	first, err := newTestClusterer(cfg, 99).Cluster(embeddings)
	require.NoError(t, err)
	second, err := newTestClusterer(cfg, 99).Cluster(embeddings)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCluster_InvariantsHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinClusterSize = 3
	cfg.MergeThreshold = 0
	c := newTestClusterer(cfg, 5)

	var embeddings []model.Embedding
	embeddings = append(embeddings, jittered("a", []float32{1, 0, 0, 0}, 20, 0.4, 1)...)
	embeddings = append(embeddings, jittered("b", []float32{0, 0, 1, 0}, 20, 0.4, 2)...)
	embeddings = append(embeddings, jittered("c", []float32{0, 0, 0, 1}, 20, 0.4, 3)...)

	byID := make(map[string][]float32, len(embeddings))
	for _, e := range embeddings {
		byID[e.ContentID] = e.Vector
	}

	clusters, err := c.Cluster(embeddings)
	require.NoError(t, err)
	require.NotEmpty(t, clusters)

	seen := make(map[string]bool)
	for _, cl := range clusters {
		assert.GreaterOrEqual(t, cl.Size(), cfg.MinClusterSize)
		assert.GreaterOrEqual(t, cl.Cohesion, 0.0)
		assert.LessOrEqual(t, cl.Cohesion, 1.0)
		assert.InDelta(t, Cohesion(cl.MemberIDs, byID), cl.Cohesion, 1e-9)

		vecs := make([][]float32, 0, cl.Size())
		for _, id := range cl.MemberIDs {
			assert.False(t, seen[id], "item %s in two clusters", id)
			seen[id] = true
			vecs = append(vecs, byID[id])
		}
		want := vector.Mean(vecs)
		require.Len(t, cl.Centroid, len(want))
		for d := range want {
			assert.InDelta(t, want[d], cl.Centroid[d], 1e-6)
		}
	}
}

func TestCluster_DimensionMismatch(t *testing.T) {
	c := newTestClusterer(DefaultConfig(), 1)
	_, err := c.Cluster([]model.Embedding{
		{ContentID: "a", Vector: []float32{1, 2, 3}},
		{ContentID: "b", Vector: []float32{1, 2}},
	})
	require.Error(t, err)
	assert.True(t, common.IsDataError(err))
	assert.Contains(t, err.Error(), "b")
}

func TestCluster_ZeroLengthVector(t *testing.T) {
	c := newTestClusterer(DefaultConfig(), 1)
	_, err := c.Cluster([]model.Embedding{{ContentID: "a"}})
	require.Error(t, err)
	assert.True(t, common.IsDataError(err))
}

func TestChooseK(t *testing.T) {
	c := newTestClusterer(DefaultConfig(), 1)
	assert.Equal(t, 0, c.chooseK(3, 5))
	assert.Equal(t, 1, c.chooseK(7, 5))
	assert.Equal(t, 2, c.chooseK(12, 5))
	assert.Equal(t, 4, c.chooseK(20, 5))
	assert.Equal(t, 8, c.chooseK(120, 5))
	assert.Equal(t, 20, c.chooseK(5000, 5))
}

func TestNearestCentroid_TieGoesToLowestIndex(t *testing.T) {
	centroids := [][]float32{{1, 0}, {-1, 0}}
	assert.Equal(t, 0, nearestCentroid([]float32{0, 1}, centroids))
}

func TestSourceFromSeed(t *testing.T) {
	assert.IsType(t, SystemEntropy{}, SourceFromSeed(0))
	assert.Equal(t, FixedSeed(42), SourceFromSeed(42))
	assert.Equal(t, FixedSeed(3).New().Uint64(), FixedSeed(3).New().Uint64())
}
