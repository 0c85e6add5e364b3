// Package store persists archetypes and classification outcomes.
package store

import (
	"context"
	"errors"

	"github.com/agenthands/archetypes/internal/core/model"
)

var ErrArchetypeNotFound = errors.New("archetype not found")

// ContentStore is everything the pipeline reads from or writes to persistence.
type ContentStore interface {
	ListArchetypes(ctx context.Context) ([]model.Archetype, error)
	ArchetypeContentStats(ctx context.Context, archetypeID string) (model.ContentStats, error)
	SaveClassification(ctx context.Context, item model.ContentItem, result model.ClassificationResult) error
	// SaveProposal stores a promoted proposal and links its example content.
	SaveProposal(ctx context.Context, archetype model.Archetype, proposal model.EmergingArchetype) error
	UpdateInfluenceScore(ctx context.Context, archetypeID string, score float64) error
	Close(ctx context.Context) error
}
