package service

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so transports can map them to responses.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified service failure. Message is safe to show to clients;
// Err carries the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "Invalid credentials"}
	// ErrUnauthorized is returned for missing, malformed or expired tokens.
	ErrUnauthorized = &Error{Kind: KindAuthentication, Message: "Unauthorized"}
	// ErrEmailTaken is returned when signing up with an already registered email.
	ErrEmailTaken = &Error{Kind: KindValidation, Message: "email already registered"}
	// ErrRecommendationNotFound hides both missing records and records owned by another user.
	ErrRecommendationNotFound = &Error{Kind: KindNotFound, Message: "recommendation not found"}
	// ErrAttachmentsDisabled is returned when an image is supplied but no bucket is configured.
	ErrAttachmentsDisabled = &Error{Kind: KindValidation, Message: "image attachments are not configured"}
)

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the Kind of err, defaulting to KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// PublicMessage returns the message to expose to clients for err.
func PublicMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Kind != KindInternal {
		return svcErr.Message
	}
	return "internal server error"
}
