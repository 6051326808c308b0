package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"health-assistant/internal/domain"
	"health-assistant/internal/repository"
)

type recommendationDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	User      bson.ObjectID `bson:"user"`
	Type      string        `bson:"type"`
	Content   string        `bson:"content"`
	Feedback  *string       `bson:"feedback"`
	ImageKey  string        `bson:"imageKey,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d recommendationDocument) toDomain() domain.Recommendation {
	return domain.Recommendation{
		ID:        d.ID.Hex(),
		UserID:    d.User.Hex(),
		Type:      domain.RecommendationType(d.Type),
		Content:   d.Content,
		Feedback:  d.Feedback,
		ImageKey:  d.ImageKey,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type RecommendationRepository struct {
	coll *mongo.Collection
}

func NewRecommendationRepository(db *mongo.Database) repository.RecommendationRepository {
	return &RecommendationRepository{coll: db.Collection(recommendationsCollection)}
}

func (r *RecommendationRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("user_created"),
	})
	if err != nil {
		return fmt.Errorf("create recommendations user index: %w", err)
	}
	return nil
}

func (r *RecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) (string, error) {
	userID, err := bson.ObjectIDFromHex(rec.UserID)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", rec.UserID, err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := recommendationDocument{
		ID:        bson.NewObjectID(),
		User:      userID,
		Type:      string(rec.Type),
		Content:   rec.Content,
		Feedback:  rec.Feedback,
		ImageKey:  rec.ImageKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert recommendation: %w", err)
	}

	rec.ID = doc.ID.Hex()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec.ID, nil
}

func (r *RecommendationRepository) Get(ctx context.Context, id string) (*domain.Recommendation, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var doc recommendationDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find recommendation: %w", err)
	}
	rec := doc.toDomain()
	return &rec, nil
}

func (r *RecommendationRepository) ListByUser(ctx context.Context, userID string, filter repository.RecommendationFilter) ([]domain.Recommendation, error) {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	query := bson.D{{Key: "user", Value: oid}}
	if filter.Type != "" {
		query = append(query, bson.E{Key: "type", Value: string(filter.Type)})
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}

	var docs []recommendationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}

	recs := make([]domain.Recommendation, 0, len(docs))
	for _, doc := range docs {
		recs = append(recs, doc.toDomain())
	}
	return recs, nil
}

func (r *RecommendationRepository) UpdateFeedback(ctx context.Context, id string, feedback *string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "feedback", Value: feedback},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
	})
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RecommendationRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete recommendation: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
