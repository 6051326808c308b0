package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-assistant/internal/domain"
	"health-assistant/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUserRepo(t *testing.T, db *sql.DB) repository.UserRepository {
	t.Helper()
	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newRecommendationRepo(t *testing.T, db *sql.DB) repository.RecommendationRepository {
	t.Helper()
	repo := NewRecommendationRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t, openTestDB(t))

	user := &domain.User{
		Email:        "a@b.com",
		PasswordHash: "hash",
		Name:         "Ada",
		Age:          36,
		Goals:        []string{"sleep"},
	}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Equal(t, "Ada", byEmail.Name)
	assert.Equal(t, 36, byEmail.Age)
	assert.Equal(t, []string{"sleep"}, byEmail.Goals)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", byID.Email)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t, openTestDB(t))

	_, err := repo.Create(ctx, &domain.User{Email: "a@b.com", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.User{Email: "a@b.com", PasswordHash: "h2"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	stored, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "h1", stored.PasswordHash)
}

func TestUserRepository_RejectsEmptyHash(t *testing.T) {
	repo := newUserRepo(t, openTestDB(t))

	_, err := repo.Create(context.Background(), &domain.User{Email: "a@b.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t, openTestDB(t))

	_, err := repo.GetByEmail(ctx, "ghost@b.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_InitIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := newUserRepo(t, db)
	require.NoError(t, repo.Init(context.Background()))
}

func TestRecommendationRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRecommendationRepo(t, openTestDB(t))

	rec := &domain.Recommendation{
		UserID:   "u1",
		Type:     domain.RecommendationFitness,
		Content:  "walk",
		ImageKey: "recommendations/u1/x.png",
	}
	id, err := repo.Create(ctx, rec)
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, domain.RecommendationFitness, got.Type)
	assert.Equal(t, "walk", got.Content)
	assert.Equal(t, "recommendations/u1/x.png", got.ImageKey)
	assert.Nil(t, got.Feedback)

	feedback := "great"
	require.NoError(t, repo.UpdateFeedback(ctx, id, &feedback))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, "great", *got.Feedback)
	assert.Equal(t, "walk", got.Content)

	require.NoError(t, repo.UpdateFeedback(ctx, id, nil))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Feedback)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, id), repository.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateFeedback(ctx, id, &feedback), repository.ErrNotFound)
}

func TestRecommendationRepository_RejectsUnknownType(t *testing.T) {
	repo := newRecommendationRepo(t, openTestDB(t))

	_, err := repo.Create(context.Background(), &domain.Recommendation{UserID: "u1", Type: "sleep", Content: "x"})
	require.Error(t, err)
}

func TestRecommendationRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	repo := newRecommendationRepo(t, openTestDB(t))

	for _, rec := range []domain.Recommendation{
		{UserID: "u1", Type: domain.RecommendationFitness, Content: "first"},
		{UserID: "u1", Type: domain.RecommendationMental, Content: "second"},
		{UserID: "u2", Type: domain.RecommendationFitness, Content: "other"},
		{UserID: "u1", Type: domain.RecommendationFitness, Content: "third"},
	} {
		rec := rec
		_, err := repo.Create(ctx, &rec)
		require.NoError(t, err)
	}

	all, err := repo.ListByUser(ctx, "u1", repository.RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Content)
	assert.Equal(t, "first", all[2].Content)

	fitness, err := repo.ListByUser(ctx, "u1", repository.RecommendationFilter{Type: domain.RecommendationFitness})
	require.NoError(t, err)
	require.Len(t, fitness, 2)

	none, err := repo.ListByUser(ctx, "nobody", repository.RecommendationFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecommendationRepository_MigratesImageKey(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.ExecContext(ctx, `
CREATE TABLE recommendations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	content TEXT NOT NULL,
	feedback TEXT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`)
	require.NoError(t, err)

	repo := newRecommendationRepo(t, db)
	_, err = repo.Create(ctx, &domain.Recommendation{UserID: "u1", Type: domain.RecommendationNutrition, Content: "x", ImageKey: "k"})
	require.NoError(t, err)
}
