// Package cluster groups embeddings with K-means++ and merges near-duplicate
// clusters before filtering by size.
package cluster

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/core/vector"
)

// Config holds the K-means tuning knobs.
type Config struct {
	MinClusterSize int
	MaxClusters    int
	Iterations     int
	// MergeThreshold is the centroid cosine similarity at or above which
	// clusters are merged. Zero or less disables merging.
	MergeThreshold float64
}

func DefaultConfig() Config {
	return Config{MinClusterSize: 5, MaxClusters: 20, Iterations: 100, MergeThreshold: 0.95}
}

func ConfigFrom(cfg config.ClusteringConfig) Config {
	return Config{
		MinClusterSize: cfg.MinClusterSize,
		MaxClusters:    cfg.MaxClusters,
		Iterations:     cfg.Iterations,
		MergeThreshold: cfg.MergeThreshold,
	}
}

// Clusterer groups embeddings with K-means++ seeding and merges near-duplicate clusters.
type Clusterer struct {
	Config Config
	Random RandomSource
	NewID  func() string
	Now    func() time.Time
	Logger logrus.FieldLogger
}

// NewClusterer falls back to system entropy when random is nil.
func NewClusterer(cfg Config, random RandomSource, logger logrus.FieldLogger) *Clusterer {
	if random == nil {
		random = SystemEntropy{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Clusterer{
		Config: cfg,
		Random: random,
		NewID:  func() string { return uuid.New().String() },
		Now:    time.Now,
		Logger: logger,
	}
}

// Cluster partitions embeddings into coherent groups. Members of clusters
// smaller than MinClusterSize are dropped, so the result may cover only
// part of the input.
func (c *Clusterer) Cluster(embeddings []model.Embedding) ([]model.Cluster, error) {
	n := len(embeddings)
	if n == 0 {
		return []model.Cluster{}, nil
	}
	if err := checkDimensions(embeddings); err != nil {
		return nil, err
	}

	points := make([][]float32, n)
	for i, e := range embeddings {
		points[i] = e.Vector
	}

	minSize := max(c.Config.MinClusterSize, 1)
	k := c.chooseK(n, minSize)

	var groups [][]int
	if k <= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		groups = [][]int{all}
	} else {
		groups = c.kmeans(points, k)
		groups = c.merge(points, groups)
	}

	clusters := make([]model.Cluster, 0, len(groups))
	now := c.Now()
	for _, g := range groups {
		if len(g) < minSize {
			continue
		}
		members := make([]string, len(g))
		vecs := make([][]float32, len(g))
		for i, idx := range g {
			members[i] = embeddings[idx].ContentID
			vecs[i] = points[idx]
		}
		clusters = append(clusters, model.Cluster{
			ID:        c.NewID(),
			MemberIDs: members,
			Centroid:  vector.Mean(vecs),
			Cohesion:  cohesion(vecs),
			CreatedAt: now,
		})
	}

	c.Logger.WithFields(logrus.Fields{
		"points":   n,
		"k":        k,
		"groups":   len(groups),
		"clusters": len(clusters),
	}).Debug("clustering finished")

	return clusters, nil
}

// chooseK returns ceil(sqrt(n/2)) bounded to [2, min(MaxClusters, n/minSize)],
// or the upper bound itself when it is below 2.
func (c *Clusterer) chooseK(n, minSize int) int {
	upper := n / minSize
	if c.Config.MaxClusters > 0 {
		upper = min(upper, c.Config.MaxClusters)
	}
	if upper < 2 {
		return upper
	}
	k := int(math.Ceil(math.Sqrt(float64(n) / 2)))
	return min(max(k, 2), upper)
}

func (c *Clusterer) kmeans(points [][]float32, k int) [][]int {
	rng := c.Random.New()
	centroids := seedPlusPlus(points, k, rng)

	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	iterations := max(c.Config.Iterations, 1)
	for it := 0; it < iterations; it++ {
		changed := false
		for i, p := range points {
			nearest := nearestCentroid(p, centroids)
			if nearest != assignments[i] {
				assignments[i] = nearest
				changed = true
			}
		}

		members := make([][][]float32, k)
		for i, a := range assignments {
			members[a] = append(members[a], points[i])
		}
		for j := range centroids {
			if len(members[j]) == 0 {
				centroids[j] = vector.Clone(points[rng.IntN(len(points))])
				continue
			}
			centroids[j] = vector.Mean(members[j])
		}

		if !changed {
			break
		}
	}

	groups := make([][]int, k)
	for i, a := range assignments {
		groups[a] = append(groups[a], i)
	}
	return slices.DeleteFunc(groups, func(g []int) bool { return len(g) == 0 })
}

// merge unions groups whose centroids are at least MergeThreshold similar.
// Groups keep the order of their lowest member index.
func (c *Clusterer) merge(points [][]float32, groups [][]int) [][]int {
	if c.Config.MergeThreshold <= 0 || len(groups) < 2 {
		return groups
	}

	centroids := make([][]float32, len(groups))
	for i, g := range groups {
		centroids[i] = groupMean(points, g)
	}

	ds := newDisjointSet(len(groups))
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			if vector.Cosine(centroids[i], centroids[j]) >= c.Config.MergeThreshold {
				ds.union(i, j)
			}
		}
	}

	byRoot := make(map[int][]int)
	var roots []int
	for i, g := range groups {
		r := ds.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], g...)
	}

	merged := make([][]int, 0, len(roots))
	for _, r := range roots {
		g := byRoot[r]
		slices.Sort(g)
		merged = append(merged, g)
	}
	slices.SortFunc(merged, func(a, b []int) int { return a[0] - b[0] })

	if len(merged) < len(groups) {
		c.Logger.WithFields(logrus.Fields{
			"before": len(groups),
			"after":  len(merged),
		}).Debug("merged similar clusters")
	}
	return merged
}

// seedPlusPlus picks the first centroid uniformly and each next one with
// probability proportional to its squared distance from the nearest chosen centroid.
func seedPlusPlus(points [][]float32, k int, rng *rand.Rand) [][]float32 {
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, vector.Clone(points[rng.IntN(len(points))]))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := vector.SquaredEuclidean(p, centroids[0])
			for _, ct := range centroids[1:] {
				d = min(d, vector.SquaredEuclidean(p, ct))
			}
			dist[i] = d
			total += d
		}

		if total == 0 {
			centroids = append(centroids, vector.Clone(points[rng.IntN(len(points))]))
			continue
		}

		target := rng.Float64() * total
		chosen := len(points) - 1
		var acc float64
		for i, d := range dist {
			acc += d
			if acc >= target && d > 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, vector.Clone(points[chosen]))
	}
	return centroids
}

// nearestCentroid breaks ties toward the lowest index.
func nearestCentroid(p []float32, centroids [][]float32) int {
	best := 0
	bestDist := vector.SquaredEuclidean(p, centroids[0])
	for j := 1; j < len(centroids); j++ {
		if d := vector.SquaredEuclidean(p, centroids[j]); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func groupMean(points [][]float32, idx []int) []float32 {
	vecs := make([][]float32, len(idx))
	for i, j := range idx {
		vecs[i] = points[j]
	}
	return vector.Mean(vecs)
}

func checkDimensions(embeddings []model.Embedding) error {
	dim := len(embeddings[0].Vector)
	for _, e := range embeddings {
		if len(e.Vector) == 0 {
			return common.NewDataError(e.ContentID, "zero-length vector")
		}
		if len(e.Vector) != dim {
			return common.NewDataError(e.ContentID, "vector length %d does not match %d", len(e.Vector), dim)
		}
	}
	return nil
}
