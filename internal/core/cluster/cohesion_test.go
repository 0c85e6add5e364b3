package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/archetypes/internal/core/model"
)

func TestCohesion(t *testing.T) {
	byID := map[string][]float32{
		"a": {1, 0},
		"b": {1, 0},
		"c": {0, 1},
		"d": {-1, 0},
	}

	assert.Equal(t, 1.0, Cohesion([]string{"a"}, byID))
	assert.InDelta(t, 1.0, Cohesion([]string{"a", "b"}, byID), 1e-9)
	assert.InDelta(t, 1.0/3.0, Cohesion([]string{"a", "b", "c"}, byID), 1e-9)
	// Opposite vectors average below zero and clamp.
	assert.Equal(t, 0.0, Cohesion([]string{"a", "d"}, byID))
	// Unknown IDs are ignored.
	assert.Equal(t, 1.0, Cohesion([]string{"a", "missing"}, byID))
}

func TestAssignToCluster(t *testing.T) {
	clusters := []model.Cluster{
		{ID: "east", Centroid: []float32{1, 0}},
		{ID: "north", Centroid: []float32{0, 1}},
	}

	id, sim := AssignToCluster([]float32{0.1, 0.9}, clusters)
	assert.Equal(t, "north", id)
	assert.Greater(t, sim, 0.9)

	id, _ = AssignToCluster([]float32{1, 1}, clusters)
	assert.Equal(t, "east", id)

	id, sim = AssignToCluster([]float32{1, 1}, nil)
	assert.Equal(t, "", id)
	assert.Equal(t, 0.0, sim)
}

func TestDisjointSet(t *testing.T) {
	ds := newDisjointSet(5)
	ds.union(0, 3)
	ds.union(3, 4)
	assert.Equal(t, ds.find(0), ds.find(4))
	assert.NotEqual(t, ds.find(0), ds.find(1))
}
