package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentifierMissing is returned when the EAN code is empty or absent
	ErrIdentifierMissing = errors.New("EAN code was null")

	// ErrNetwork is returned when the raw page content could not be fetched or is unusable
	ErrNetwork = errors.New("product page fetch failed")

	// ErrProductNotFound is returned when the product page does not exist upstream
	ErrProductNotFound = errors.New("product not found")

	// ErrParse is the sentinel every ParseError matches with errors.Is
	ErrParse = errors.New("product page parse failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)

// Parse failure reasons reported by the extraction strategies
const (
	ReasonMarkerNotFound    = "marker-not-found"
	ReasonInvalidJSON       = "invalid-json"
	ReasonProductKeyMissing = "product-key-missing"
	ReasonInvalidHTML       = "invalid-html"
	ReasonInternal          = "internal"
)

// ParseError reports a total extraction failure: no usable product root was found.
type ParseError struct {
	Reason string
	Err    error
}

// NewParseError creates a ParseError with an optional underlying cause
func NewParseError(reason string, err error) *ParseError {
	return &ParseError{Reason: reason, Err: err}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

// Is makes every ParseError match ErrParse
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
