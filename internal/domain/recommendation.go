package domain

import "time"

type RecommendationType string

const (
	RecommendationFitness   RecommendationType = "fitness"
	RecommendationNutrition RecommendationType = "nutrition"
	RecommendationMental    RecommendationType = "mental"
)

// Valid reports whether t is one of the known recommendation categories.
func (t RecommendationType) Valid() bool {
	switch t {
	case RecommendationFitness, RecommendationNutrition, RecommendationMental:
		return true
	}
	return false
}

// Recommendation is a wellness suggestion stored for a user.
// Only Feedback changes after creation.
type Recommendation struct {
	ID        string
	UserID    string
	Type      RecommendationType
	Content   string
	Feedback  *string
	ImageKey  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
