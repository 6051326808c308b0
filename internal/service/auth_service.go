package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"health-assistant/internal/auth"
	"health-assistant/internal/domain"
	"health-assistant/internal/repository"
)

// AuthConfig carries the immutable settings the auth service is built from.
type AuthConfig struct {
	JWTSecret  string
	BcryptCost int
	// Clock overrides time.Now for token issuance and validation.
	Clock func() time.Time
}

// SignupRequest is the validated input of Signup.
type SignupRequest struct {
	Email    string
	Password string
	Profile  domain.Profile
}

// Validate normalizes the email and checks required fields.
func (r *SignupRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	r.Profile.Name = strings.TrimSpace(r.Profile.Name)
	r.Profile.Gender = strings.TrimSpace(r.Profile.Gender)

	if r.Email == "" {
		return validationError("email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return validationError("email is invalid")
	}
	if r.Password == "" {
		return validationError("password is required")
	}
	if r.Profile.Age < 0 {
		return validationError("age must not be negative")
	}
	return nil
}

// LoginRequest is the input of Login.
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResult is returned on successful login. User never carries the password hash.
type LoginResult struct {
	Token string
	User  *domain.User
}

// AuthService describes user signup, login and token verification.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*domain.User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	VerifyToken(token string) (*auth.Claims, error)
}

type authService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens *auth.TokenIssuer
	logger *logrus.Logger
	// dummyHash is compared against when the email is unknown so both
	// login failures cost one bcrypt comparison.
	dummyHash string
}

func NewAuthService(users repository.UserRepository, cfg AuthConfig, logger *logrus.Logger) AuthService {
	var opts []auth.TokenOption
	if cfg.Clock != nil {
		opts = append(opts, auth.WithClock(cfg.Clock))
	}
	if logger == nil {
		logger = logrus.New()
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		logger.WithError(err).Warn("generate login dummy hash")
	}
	return &authService{
		users:     users,
		hasher:    hasher,
		tokens:    auth.NewTokenIssuer(cfg.JWTSecret, opts...),
		logger:    logger,
		dummyHash: dummyHash,
	}
}

func (s *authService) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, internalError("hash password", err)
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Profile.Name,
		Age:          req.Profile.Age,
		Gender:       req.Profile.Gender,
		Goals:        req.Profile.Goals,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.WithField("email", req.Email).Info("signup rejected: email already registered")
			return nil, ErrEmailTaken
		}
		return nil, internalError("create user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user registered")

	return sanitizeUser(user), nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.hasher.Compare(s.dummyHash, req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, internalError("find user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalError("verify password", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, internalError("issue token", err)
	}

	s.logger.WithField("user_id", user.ID).Debug("user logged in")

	return &LoginResult{
		Token: token,
		User:  sanitizeUser(user),
	}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// token outlived its account
			return nil, ErrUnauthorized
		}
		return nil, internalError("find user", err)
	}
	return sanitizeUser(user), nil
}

func (s *authService) VerifyToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, &Error{Kind: KindAuthentication, Message: ErrUnauthorized.Message, Err: err}
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	if user.Goals != nil {
		clean.Goals = append([]string(nil), user.Goals...)
	}
	return &clean
}
