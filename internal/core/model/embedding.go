package model

import "time"

type Embedding struct {
	ContentID   string    `json:"content_id"`
	Vector      []float32 `json:"vector"`
	ModelName   string    `json:"model_name"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Cluster is recomputed on every clustering run and never persisted.
type Cluster struct {
	ID        string    `json:"id"`
	MemberIDs []string  `json:"member_ids"`
	Centroid  []float32 `json:"centroid"`
	Cohesion  float64   `json:"cohesion"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Cluster) Size() int {
	return len(c.MemberIDs)
}
