package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"health-assistant/internal/domain"
	"health-assistant/internal/repository"
)

const createRecommendationsTable = `
CREATE TABLE IF NOT EXISTS recommendations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL CHECK (type IN ('fitness', 'nutrition', 'mental')),
	content TEXT NOT NULL,
	feedback TEXT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recommendations_user ON recommendations(user_id, created_at);
`

type RecommendationRepository struct {
	db *sql.DB
}

func NewRecommendationRepository(db *sql.DB) repository.RecommendationRepository {
	return &RecommendationRepository{db: db}
}

func (r *RecommendationRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRecommendationsTable); err != nil {
		return fmt.Errorf("create recommendations table: %w", err)
	}
	return r.ensureRecommendationColumns(ctx)
}

// ensureRecommendationColumns adds columns introduced after the first schema.
func (r *RecommendationRepository) ensureRecommendationColumns(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `PRAGMA table_info(recommendations)`)
	if err != nil {
		return fmt.Errorf("describe recommendations table: %w", err)
	}
	defer rows.Close()

	columns := map[string]struct{}{}
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scan pragma table info: %w", err)
		}
		columns[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate pragma table info: %w", err)
	}
	rows.Close()

	if _, exists := columns["image_key"]; !exists {
		if _, err := r.db.ExecContext(ctx, `ALTER TABLE recommendations ADD COLUMN image_key TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add column image_key: %w", err)
		}
	}
	return nil
}

func (r *RecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) (string, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO recommendations (id, user_id, type, content, feedback, image_key, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		rec.UserID,
		string(rec.Type),
		rec.Content,
		nullString(rec.Feedback),
		rec.ImageKey,
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("insert recommendation: %w", err)
	}

	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return id, nil
}

func (r *RecommendationRepository) Get(ctx context.Context, id string) (*domain.Recommendation, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, type, content, feedback, image_key, created_at, updated_at
FROM recommendations
WHERE id = ?`, id)

	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *RecommendationRepository) ListByUser(ctx context.Context, userID string, filter repository.RecommendationFilter) ([]domain.Recommendation, error) {
	var (
		query strings.Builder
		args  = []any{userID}
	)
	query.WriteString(`
SELECT id, user_id, type, content, feedback, image_key, created_at, updated_at
FROM recommendations
WHERE user_id = ?`)
	if filter.Type != "" {
		query.WriteString(` AND type = ?`)
		args = append(args, string(filter.Type))
	}
	query.WriteString(` ORDER BY created_at DESC, rowid DESC`)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return recs, nil
}

func (r *RecommendationRepository) UpdateFeedback(ctx context.Context, id string, feedback *string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE recommendations
SET feedback = ?, updated_at = ?
WHERE id = ?`,
		nullString(feedback),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return expectAffected(res)
}

func (r *RecommendationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recommendations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recommendation: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanRecommendation(row interface {
	Scan(dest ...any) error
}) (*domain.Recommendation, error) {
	var (
		rec      domain.Recommendation
		typ      string
		feedback sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&typ,
		&rec.Content,
		&feedback,
		&rec.ImageKey,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan recommendation: %w", err)
	}
	rec.Type = domain.RecommendationType(typ)
	if feedback.Valid {
		v := feedback.String
		rec.Feedback = &v
	}
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
