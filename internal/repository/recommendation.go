package repository

import (
	"context"

	"health-assistant/internal/domain"
)

// RecommendationFilter narrows ListByUser results. A zero value matches everything.
type RecommendationFilter struct {
	Type domain.RecommendationType
}

// RecommendationRepository exposes persistence operations for Recommendation records.
type RecommendationRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, rec *domain.Recommendation) (string, error)
	Get(ctx context.Context, id string) (*domain.Recommendation, error)
	ListByUser(ctx context.Context, userID string, filter RecommendationFilter) ([]domain.Recommendation, error)
	UpdateFeedback(ctx context.Context, id string, feedback *string) error
	Delete(ctx context.Context, id string) error
}
