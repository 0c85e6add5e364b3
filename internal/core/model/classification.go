package model

import "time"

// NoArchetype is the ArchetypeID of results that matched nothing.
const NoArchetype = "none"

type Confidence struct {
	Score               float64 `json:"score"`
	TextualMatch        float64 `json:"textual_match"`
	HashtagMatch        float64 `json:"hashtag_match"`
	ContextualRelevance float64 `json:"contextual_relevance"`
}

type ClassificationResult struct {
	ContentID              string     `json:"content_id"`
	ArchetypeID            string     `json:"archetype_id"`
	Confidence             Confidence `json:"confidence"`
	IsNewArchetype         bool       `json:"is_new_archetype"`
	SuggestedArchetypeName string     `json:"suggested_archetype_name,omitempty"`
}

// Stage is a step of the per-batch state machine.
type Stage string

const (
	StageReceived   Stage = "received"
	StageEmbedded   Stage = "embedded"
	StageClustered  Stage = "clustered"
	StageIdentified Stage = "identified"
	StageClassified Stage = "classified"
	StageReported   Stage = "reported"
)

type StageTransition struct {
	Stage Stage     `json:"stage"`
	At    time.Time `json:"at"`
}

// BatchReport is the outcome of one ProcessContent call.
type BatchReport struct {
	BatchID      string                 `json:"batch_id"`
	Stage        Stage                  `json:"stage"`
	Transitions  []StageTransition      `json:"transitions"`
	Results      []ClassificationResult `json:"results"`
	Unclassified []ClassificationResult `json:"unclassified"`
	Proposals    []EmergingArchetype    `json:"proposals"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
}
