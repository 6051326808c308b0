package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of every issued token.
const TokenTTL = time.Hour

var (
	// ErrInvalidToken is returned when a token fails signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the identity asserted by an issued token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

func NewTokenIssuer(secret string, opts ...TokenOption) *TokenIssuer {
	t := &TokenIssuer{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue returns a signed token for the user that expires after TokenTTL.
func (t *TokenIssuer) Issue(userID, email string) (string, error) {
	if len(t.secret) == 0 {
		return "", fmt.Errorf("sign token: secret is not configured")
	}

	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		UserID: userID,
		Email:  email,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the token and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
