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

// userDocument mirrors the users collection. Field names match documents
// written by earlier deployments of the service.
type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	Name      string        `bson:"name,omitempty"`
	Age       int           `bson:"age,omitempty"`
	Gender    string        `bson:"gender,omitempty"`
	Goals     []string      `bson:"goals,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		Name:         d.Name,
		Age:          d.Age,
		Gender:       d.Gender,
		Goals:        d.Goals,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// emailCollation compares emails case-insensitively, so documents stored with
// mixed-case addresses still match the lower-cased lookups.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

// Init creates the unique email index that backs signup uniqueness.
func (r *UserRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("email_unique_ci").
			SetCollation(emailCollation),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:        bson.NewObjectID(),
		Email:     user.Email,
		Password:  user.PasswordHash,
		Name:      user.Name,
		Age:       user.Age,
		Gender:    user.Gender,
		Goals:     user.Goals,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, options.FindOne().SetCollation(emailCollation))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, options.FindOne())
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptionsBuilder) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}
