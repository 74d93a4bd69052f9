// Package extract turns raw product page content into an ExtractedProductRecord.
//
// Two strategies exist with different failure granularity:
//   - EmbeddedBlobStrategy fails fast: without a usable product root the whole
//     extraction fails with a *domain.ParseError.
//   - DomFallbackStrategy degrades per field: missing elements get a
//     placeholder value and the extraction still succeeds.
//
// The Extractor picks one of them with a capability probe on the raw content.
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/eaninfo/backend/internal/domain"
)

// Strategy extracts a product record from raw page content
type Strategy interface {
	Name() string
	Extract(raw string) (*Result, error)
}

// Result is a successful extraction. MissingFields lists the record fields
// that could not be read; a non-empty list means partial success.
type Result struct {
	Record        domain.ExtractedProductRecord
	Strategy      string
	MissingFields []string
}

// Partial reports whether some fields were missing from the page
func (r *Result) Partial() bool {
	return len(r.MissingFields) > 0
}

// Options configures the Extractor
type Options struct {
	// DOMFallback enables the DOM strategy for pages without an embedded data blob.
	DOMFallback bool
}

// Extractor selects a strategy per page and runs it
type Extractor struct {
	blob        Strategy
	dom         Strategy
	domFallback bool
}

// NewExtractor creates an Extractor with the default strategies
func NewExtractor(opts Options) *Extractor {
	return &Extractor{
		blob:        NewEmbeddedBlobStrategy(),
		dom:         NewDomFallbackStrategy(),
		domFallback: opts.DOMFallback,
	}
}

// Select returns the strategy that should handle the raw content
func (e *Extractor) Select(raw string) Strategy {
	if strings.Contains(raw, NextDataMarker) {
		return e.blob
	}
	if e.domFallback {
		return e.dom
	}
	return e.blob
}

// Extract runs the selected strategy. It never panics; an unexpected panic
// inside a strategy is reported as a ParseError.
func (e *Extractor) Extract(raw string) (result *Result, err error) {
	strategy := e.Select(raw)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("[extract] strategy panicked", "strategy", strategy.Name(), "panic", r)
			result = nil
			err = domain.NewParseError(domain.ReasonInternal, fmt.Errorf("%v", r))
		}
	}()

	result, err = strategy.Extract(raw)
	if err != nil {
		slog.Debug("[extract] extraction failed", "strategy", strategy.Name(), "err", err)
		return nil, err
	}

	if result.Partial() {
		slog.Debug("[extract] partial extraction",
			"strategy", strategy.Name(),
			"missing", result.MissingFields)
	}
	return result, nil
}
