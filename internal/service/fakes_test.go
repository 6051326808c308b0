package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"health-assistant/internal/domain"
	"health-assistant/internal/repository"
	"health-assistant/internal/storage"
)

type memoryUserRepo struct {
	mu      sync.Mutex
	seq     int
	byEmail map[string]*domain.User
	failGet error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byEmail: map[string]*domain.User{}}
}

func (m *memoryUserRepo) Init(ctx context.Context) error { return nil }

func (m *memoryUserRepo) Create(ctx context.Context, user *domain.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return "", fmt.Errorf("insert user: %w", repository.ErrDuplicate)
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byEmail[user.Email] = &stored
	return user.ID, nil
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

var _ repository.UserRepository = (*memoryUserRepo)(nil)

type memoryRecommendationRepo struct {
	mu         sync.Mutex
	seq        int
	recs       map[string]domain.Recommendation
	failCreate error
}

func newMemoryRecommendationRepo() *memoryRecommendationRepo {
	return &memoryRecommendationRepo{recs: map[string]domain.Recommendation{}}
}

func (m *memoryRecommendationRepo) Init(ctx context.Context) error { return nil }

func (m *memoryRecommendationRepo) Create(ctx context.Context, rec *domain.Recommendation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return "", m.failCreate
	}
	m.seq++
	rec.ID = fmt.Sprintf("rec-%d", m.seq)
	rec.CreatedAt = time.Now().UTC().Add(time.Duration(m.seq) * time.Millisecond)
	rec.UpdatedAt = rec.CreatedAt
	m.recs[rec.ID] = *rec
	return rec.ID, nil
}

func (m *memoryRecommendationRepo) Get(ctx context.Context, id string) (*domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (m *memoryRecommendationRepo) ListByUser(ctx context.Context, userID string, filter repository.RecommendationFilter) ([]domain.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recommendation
	for _, rec := range m.recs {
		if rec.UserID != userID {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRecommendationRepo) UpdateFeedback(ctx context.Context, id string, feedback *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Feedback = feedback
	rec.UpdatedAt = time.Now().UTC()
	m.recs[id] = rec
	return nil
}

func (m *memoryRecommendationRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

var _ repository.RecommendationRepository = (*memoryRecommendationRepo)(nil)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) Upload(ctx context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[opts.Key] = buf.Bytes()
	m.types[opts.Key] = opts.ContentType
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (m *memoryStorage) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.example/%s?expires=%d", bucket, key, int(expires.Seconds())), nil
}

func (m *memoryStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memoryStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ storage.Service = (*memoryStorage)(nil)
