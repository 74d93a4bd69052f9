package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/eaninfo/backend/internal/domain"
	"github.com/eaninfo/backend/internal/extract"
)

// Package-level compiled regex pattern for cache key normalization
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]`)

// eanPattern accepts the digit-only codes product pages are keyed by
var eanPattern = regexp.MustCompile(`^[0-9]+$`)

// Extractor parses raw page content into a product record
type Extractor interface {
	Extract(raw string) (*extract.Result, error)
}

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	CacheTTL time.Duration
}

// ProductService runs fetch -> extract for one EAN code and caches the records
type ProductService struct {
	cache     domain.CacheRepository
	fetcher   domain.Fetcher
	extractor Extractor
	cacheTTL  time.Duration
}

// NewProductService creates a new product service with dependencies.
// A nil cache disables record caching.
func NewProductService(
	cache domain.CacheRepository,
	fetcher domain.Fetcher,
	extractor Extractor,
	config ProductServiceConfig,
) *ProductService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ProductService{
		cache:     cache,
		fetcher:   fetcher,
		extractor: extractor,
		cacheTTL:  cacheTTL,
	}
}

// Load returns the product record for an EAN code.
// Flow: validate -> check cache -> fetch -> reject upstream errors -> extract -> cache
func (s *ProductService) Load(ctx context.Context, ean string) (*domain.ExtractedProductRecord, error) {
	ean = domain.NormalizeIdentifier(ean)
	if ean == "" {
		return nil, domain.ErrIdentifierMissing
	}
	if !eanPattern.MatchString(ean) {
		return nil, fmt.Errorf("%w: EAN code must contain only digits", domain.ErrInvalidRequest)
	}

	cacheKey := generateCacheKey(ean)
	if record, err := s.getFromCache(ctx, cacheKey); err == nil {
		slog.Debug("[product] cache hit", "ean", ean)
		return record, nil
	}

	raw, err := s.fetcher.FetchRawContent(ctx, ean)
	if err != nil {
		if errors.Is(err, domain.ErrNetwork) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}

	if err := checkUpstreamReply(raw); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(raw)
	if err != nil {
		slog.Info("[product] extraction failed", "ean", ean, "err", err)
		return nil, err
	}
	if result.Partial() {
		slog.Info("[product] partial record",
			"ean", ean,
			"strategy", result.Strategy,
			"missing", len(result.MissingFields))
	}

	record := result.Record
	if err := s.setInCache(ctx, cacheKey, &record); err != nil {
		// Caching failures never fail the lookup
		slog.Warn("[product] failed to cache record", "ean", ean, "err", err)
	}

	return &record, nil
}

// upstreamReply is the error document the scraping upstream answers with
type upstreamReply struct {
	Error string `json:"error"`
}

// checkUpstreamReply rejects empty content and {"error": "..."} replies
func checkUpstreamReply(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%w: empty response", domain.ErrNetwork)
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var reply upstreamReply
	if err := json.Unmarshal([]byte(trimmed), &reply); err != nil {
		return nil
	}
	if reply.Error != "" {
		return fmt.Errorf("%w: %s", domain.ErrNetwork, reply.Error)
	}
	return nil
}

// generateCacheKey creates a normalized cache key: "product:{normalized_ean}"
func generateCacheKey(ean string) string {
	return "product:" + nonAlphanumericRegex.ReplaceAllString(strings.ToLower(ean), "")
}

// getFromCache retrieves a product record from cache
func (s *ProductService) getFromCache(ctx context.Context, key string) (*domain.ExtractedProductRecord, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var record domain.ExtractedProductRecord
	if err := json.Unmarshal(data, &record); err != nil {
		slog.Warn("[product] dropping undecodable cache entry", "key", key, "err", err)
		_ = s.cache.Delete(ctx, key)
		return nil, domain.ErrCacheMiss
	}
	return &record, nil
}

// setInCache stores a product record in cache
func (s *ProductService) setInCache(ctx context.Context, key string, record *domain.ExtractedProductRecord) error {
	if s.cache == nil {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}

// BuildView composes the formatter, nutrient builder and image resolver
// into the view of a successfully extracted record.
func BuildView(record *domain.ExtractedProductRecord, nutrientGroup int) domain.ProductView {
	nutrients := BuildNutrients(record, nutrientGroup)

	view := domain.ProductView{
		DisplayEntries:            FormatRecord(record),
		NutrientEntries:           nutrients.Entries,
		NutrientReferenceQuantity: nutrients.ReferenceQuantity,
	}
	if record != nil {
		view.ImageURL = ResolveImageURL(record.ImageURLTemplate)
	}
	return view
}
