package videos

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates the caller has no authenticated identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument indicates missing or malformed video fields.
	ErrInvalidArgument = errors.New("invalid video payload")
	// ErrStoreFailure wraps any persistence error.
	ErrStoreFailure = errors.New("video store failure")

	ErrMissingFields  = fmt.Errorf("%w: missing required fields", ErrInvalidArgument)
	ErrInvalidQuality = fmt.Errorf("%w: quality must be between 1 and 100", ErrInvalidArgument)
)
