package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"health-assistant/internal/domain"
	"health-assistant/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL CHECK (password_hash <> ''),
	name TEXT NOT NULL DEFAULT '',
	age INTEGER NOT NULL DEFAULT 0,
	gender TEXT NOT NULL DEFAULT '',
	goals TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	goals, err := json.Marshal(nonNilGoals(user.Goals))
	if err != nil {
		return "", fmt.Errorf("encode goals: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, name, age, gender, goals, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Age,
		user.Gender,
		string(goals),
		now,
		now,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return "", fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, name, age, gender, goals, created_at, updated_at
FROM users
WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, name, age, gender, goals, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user  domain.User
		goals string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Age,
		&user.Gender,
		&goals,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if goals != "" {
		if err := json.Unmarshal([]byte(goals), &user.Goals); err != nil {
			return nil, fmt.Errorf("decode goals: %w", err)
		}
	}
	if len(user.Goals) == 0 {
		user.Goals = nil
	}
	return &user, nil
}

func nonNilGoals(goals []string) []string {
	if goals == nil {
		return []string{}
	}
	return goals
}
