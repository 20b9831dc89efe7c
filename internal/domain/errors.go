package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrStorage      = errors.New("storage failure")
)

// Specific failures. Each wraps its generic class so errors.Is matches both.
var (
	ErrIdentityNotFound = fmt.Errorf("user not found: %w", ErrUnauthorized)

	ErrFileNotFound         = fmt.Errorf("file not found: %w", ErrNotFound)
	ErrFileMissingOnStorage = fmt.Errorf("file not found on server: %w", ErrNotFound)

	// ErrInvalidCapability covers unknown, forged, expired and already used
	// download tokens alike.
	ErrInvalidCapability = fmt.Errorf("invalid or expired download token: %w", ErrBadRequest)

	ErrVerificationNotFound = fmt.Errorf("invalid verification token: %w", ErrBadRequest)
	ErrVerificationExpired  = fmt.Errorf("verification token expired: %w", ErrBadRequest)
	ErrVerificationMismatch = fmt.Errorf("invalid verification token: %w", ErrBadRequest)
)
