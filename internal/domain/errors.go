package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRegion rejects a malformed region code before any provider
	// or storage access.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrInvalidWindow rejects an unknown window selector.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrStoreUnavailable wraps any failure of the snapshot storage backend.
	ErrStoreUnavailable = errors.New("snapshot store unavailable")

	// ErrProviderSkipped is returned by a provider that is not configured
	// (e.g. a missing API key). The chain does not count it as a failure.
	ErrProviderSkipped = errors.New("provider skipped")

	// ErrEmptyResult is returned by a provider that answered but produced no
	// usable topics.
	ErrEmptyResult = errors.New("provider returned no topics")
)

// ProviderError records a failed attempt of one provider in the source chain.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError wraps a storage failure as ErrStoreUnavailable while keeping
// the underlying cause reachable through errors.Is / errors.As.
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
