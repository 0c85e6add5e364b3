package cluster

import (
	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/core/vector"
)

// Cohesion is the mean pairwise cosine similarity of the members found in
// embeddingsByID, clamped to [0,1]. Fewer than two known members score 1.
func Cohesion(memberIDs []string, embeddingsByID map[string][]float32) float64 {
	vecs := make([][]float32, 0, len(memberIDs))
	for _, id := range memberIDs {
		if v, ok := embeddingsByID[id]; ok {
			vecs = append(vecs, v)
		}
	}
	return cohesion(vecs)
}

func cohesion(vecs [][]float32) float64 {
	if len(vecs) < 2 {
		return 1.0
	}
	var sum float64
	var pairs int
	for i := 0; i < len(vecs); i++ {
		for j := i + 1; j < len(vecs); j++ {
			sum += vector.Cosine(vecs[i], vecs[j])
			pairs++
		}
	}
	return common.Clamp01(sum / float64(pairs))
}

// AssignToCluster returns the cluster whose centroid is most cosine-similar
// to v. Ties keep the earlier cluster; no clusters yields ("", 0).
func AssignToCluster(v []float32, clusters []model.Cluster) (string, float64) {
	bestID := ""
	best := 0.0
	for i, c := range clusters {
		sim := vector.Cosine(v, c.Centroid)
		if i == 0 || sim > best {
			bestID, best = c.ID, sim
		}
	}
	return bestID, best
}
