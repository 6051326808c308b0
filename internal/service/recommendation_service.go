package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"health-assistant/internal/domain"
	"health-assistant/internal/repository"
	"health-assistant/internal/storage"
)

const (
	defaultMaxImageBytes = 5 << 20
	defaultURLExpiry     = 15 * time.Minute
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AttachmentConfig describes where recommendation images are kept.
// An empty Bucket disables attachments.
type AttachmentConfig struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
	MaxBytes  int
}

// CreateRecommendationRequest is the input of Create.
type CreateRecommendationRequest struct {
	UserID  string
	Type    domain.RecommendationType
	Content string
	Image   []byte
}

func (r *CreateRecommendationRequest) Validate() error {
	r.Type = domain.RecommendationType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	r.Content = strings.TrimSpace(r.Content)

	if r.UserID == "" {
		return validationError("user is required")
	}
	if !r.Type.Valid() {
		return validationError("type must be one of fitness, nutrition, mental")
	}
	if r.Content == "" {
		return validationError("content is required")
	}
	return nil
}

// RecommendationService stores wellness recommendations on behalf of their owners.
type RecommendationService interface {
	Create(ctx context.Context, req CreateRecommendationRequest) (*domain.Recommendation, error)
	Get(ctx context.Context, userID, id string) (*domain.Recommendation, error)
	List(ctx context.Context, userID string, typ domain.RecommendationType) ([]domain.Recommendation, error)
	SetFeedback(ctx context.Context, userID, id string, feedback *string) (*domain.Recommendation, error)
	Delete(ctx context.Context, userID, id string) error
	ImageURL(ctx context.Context, rec *domain.Recommendation) (string, error)
	// MaxImageBytes is the largest decoded image Create accepts.
	MaxImageBytes() int
}

type recommendationService struct {
	recs    repository.RecommendationRepository
	storage storage.Service
	cfg     AttachmentConfig
	logger  *logrus.Logger
}

// NewRecommendationService builds the service. store may be nil when attachments are disabled.
func NewRecommendationService(recs repository.RecommendationRepository, store storage.Service, cfg AttachmentConfig, logger *logrus.Logger) RecommendationService {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = defaultURLExpiry
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxImageBytes
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	if logger == nil {
		logger = logrus.New()
	}
	return &recommendationService{
		recs:    recs,
		storage: store,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *recommendationService) MaxImageBytes() int {
	return s.cfg.MaxBytes
}

func (s *recommendationService) attachmentsEnabled() bool {
	return s.storage != nil && s.cfg.Bucket != ""
}

func (s *recommendationService) Create(ctx context.Context, req CreateRecommendationRequest) (*domain.Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rec := &domain.Recommendation{
		UserID:  req.UserID,
		Type:    req.Type,
		Content: req.Content,
	}

	if len(req.Image) > 0 {
		key, err := s.uploadImage(ctx, req.UserID, req.Image)
		if err != nil {
			return nil, err
		}
		rec.ImageKey = key
	}

	if _, err := s.recs.Create(ctx, rec); err != nil {
		if rec.ImageKey != "" {
			s.deleteImage(ctx, rec.ImageKey)
		}
		return nil, internalError("create recommendation", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":           rec.UserID,
		"recommendation_id": rec.ID,
		"type":              rec.Type,
	}).Info("recommendation stored")

	return rec, nil
}

func (s *recommendationService) uploadImage(ctx context.Context, userID string, data []byte) (string, error) {
	if !s.attachmentsEnabled() {
		return "", ErrAttachmentsDisabled
	}
	if len(data) > s.cfg.MaxBytes {
		return "", validationError(fmt.Sprintf("image exceeds %d bytes", s.cfg.MaxBytes))
	}

	mime := mimetype.Detect(data)
	ext, ok := imageExtensions[mime.String()]
	if !ok {
		return "", validationError(fmt.Sprintf("unsupported image type %s", mime.String()))
	}

	key := path.Join(s.cfg.KeyPrefix, userID, uuid.NewString()+ext)
	if _, err := s.storage.Upload(ctx, bytes.NewReader(data), storage.UploadOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: mime.String(),
	}); err != nil {
		return "", internalError("upload image", err)
	}
	return key, nil
}

func (s *recommendationService) deleteImage(ctx context.Context, key string) {
	if !s.attachmentsEnabled() {
		return
	}
	if err := s.storage.Delete(ctx, s.cfg.Bucket, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("delete recommendation image")
	}
}

func (s *recommendationService) Get(ctx context.Context, userID, id string) (*domain.Recommendation, error) {
	rec, err := s.recs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecommendationNotFound
		}
		return nil, internalError("get recommendation", err)
	}
	if rec.UserID != userID {
		return nil, ErrRecommendationNotFound
	}
	return rec, nil
}

func (s *recommendationService) List(ctx context.Context, userID string, typ domain.RecommendationType) ([]domain.Recommendation, error) {
	typ = domain.RecommendationType(strings.ToLower(strings.TrimSpace(string(typ))))
	if typ != "" && !typ.Valid() {
		return nil, validationError("type must be one of fitness, nutrition, mental")
	}

	recs, err := s.recs.ListByUser(ctx, userID, repository.RecommendationFilter{Type: typ})
	if err != nil {
		return nil, internalError("list recommendations", err)
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return recs, nil
}

func (s *recommendationService) SetFeedback(ctx context.Context, userID, id string, feedback *string) (*domain.Recommendation, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if feedback != nil {
		trimmed := strings.TrimSpace(*feedback)
		if trimmed == "" {
			feedback = nil
		} else {
			feedback = &trimmed
		}
	}

	if err := s.recs.UpdateFeedback(ctx, rec.ID, feedback); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecommendationNotFound
		}
		return nil, internalError("update feedback", err)
	}

	return s.Get(ctx, userID, id)
}

func (s *recommendationService) Delete(ctx context.Context, userID, id string) error {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.recs.Delete(ctx, rec.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecommendationNotFound
		}
		return internalError("delete recommendation", err)
	}

	if rec.ImageKey != "" {
		s.deleteImage(ctx, rec.ImageKey)
	}
	return nil
}

// ImageURL returns a presigned link to the recommendation image, or "" when it has none.
func (s *recommendationService) ImageURL(ctx context.Context, rec *domain.Recommendation) (string, error) {
	if rec == nil || rec.ImageKey == "" || !s.attachmentsEnabled() {
		return "", nil
	}
	url, err := s.storage.GetObjectURL(ctx, s.cfg.Bucket, rec.ImageKey, s.cfg.URLExpiry)
	if err != nil {
		return "", internalError("presign image", err)
	}
	return url, nil
}
