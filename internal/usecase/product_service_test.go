package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eaninfo/backend/internal/domain"
	"github.com/eaninfo/backend/internal/extract"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
	lastTTL   time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	m.lastTTL = ttl
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockFetcher is a mock implementation of domain.Fetcher
type MockFetcher struct {
	mu      sync.Mutex
	content string
	err     error
	calls   []string
}

func NewMockFetcher(content string) *MockFetcher {
	return &MockFetcher{content: content}
}

func (m *MockFetcher) FetchRawContent(ctx context.Context, ean string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ean)
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}

func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// productPage embeds a JSON document like a product page does
func productPage(blob string) string {
	return "<html><body>" + extract.NextDataMarker + blob + "</script></body></html>"
}

const milkBlob = `{"Product:123": {"name": "Milk", "price": 1.5, "priceUnit": "L", "ean": "6410405176315",
	"productDetails": {
		"productImages": {"mainImage": {"urlTemplate": "https://img/{MODIFIERS}/x.{EXTENSION}"}},
		"nutrients": [{"referenceQuantity": "100g", "nutrients": [{"name": "Energia", "value": "250kcal"}, {"name": "Suola"}]}]
	}}}`

func newTestService(cache domain.CacheRepository, fetcher domain.Fetcher) *ProductService {
	return NewProductService(cache, fetcher, extract.NewExtractor(extract.Options{}), ProductServiceConfig{})
}

func TestNewProductService(t *testing.T) {
	t.Run("creates service with default values", func(t *testing.T) {
		svc := NewProductService(nil, NewMockFetcher(""), extract.NewExtractor(extract.Options{}), ProductServiceConfig{})
		if svc == nil {
			t.Fatal("expected service to be created")
		}
		if svc.cacheTTL != 24*time.Hour {
			t.Errorf("cacheTTL = %v, want 24h", svc.cacheTTL)
		}
	})

	t.Run("creates service with custom values", func(t *testing.T) {
		svc := NewProductService(nil, NewMockFetcher(""), extract.NewExtractor(extract.Options{}), ProductServiceConfig{
			CacheTTL: time.Hour,
		})
		if svc.cacheTTL != time.Hour {
			t.Errorf("cacheTTL = %v, want 1h", svc.cacheTTL)
		}
	})
}

func TestProductService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("returns error for empty identifier without fetching", func(t *testing.T) {
		for _, ean := range []string{"", "   "} {
			fetcher := NewMockFetcher(productPage(milkBlob))
			svc := newTestService(NewMockCacheRepository(), fetcher)

			_, err := svc.Load(ctx, ean)
			if !errors.Is(err, domain.ErrIdentifierMissing) {
				t.Errorf("Load(%q) error = %v, want ErrIdentifierMissing", ean, err)
			}
			if fetcher.CallCount() != 0 {
				t.Errorf("Load(%q) fetched %d times, want 0", ean, fetcher.CallCount())
			}
		}
	})

	t.Run("rejects non-digit identifiers without fetching", func(t *testing.T) {
		for _, ean := range []string{"123?admin=1", "../../1", "abc", "6410-405", "12 34"} {
			fetcher := NewMockFetcher(productPage(milkBlob))
			svc := newTestService(NewMockCacheRepository(), fetcher)

			_, err := svc.Load(ctx, ean)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("Load(%q) error = %v, want ErrInvalidRequest", ean, err)
			}
			if fetcher.CallCount() != 0 {
				t.Errorf("Load(%q) fetched %d times, want 0", ean, fetcher.CallCount())
			}
		}
	})

	t.Run("extracts and caches the record", func(t *testing.T) {
		cache := NewMockCacheRepository()
		fetcher := NewMockFetcher(productPage(milkBlob))
		svc := newTestService(cache, fetcher)

		record, err := svc.Load(ctx, " 6410405176315 ")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if record.Name != "Milk" {
			t.Errorf("Name = %q, want Milk", record.Name)
		}
		if fetcher.calls[0] != "6410405176315" {
			t.Errorf("fetched %q, want trimmed identifier", fetcher.calls[0])
		}
		if !cache.setCalled {
			t.Error("expected record to be cached")
		}
		if cache.lastTTL != 24*time.Hour {
			t.Errorf("cache ttl = %v, want 24h", cache.lastTTL)
		}
		if _, ok := cache.data["product:6410405176315"]; !ok {
			t.Errorf("cache keys = %v, want product:6410405176315", cache.data)
		}
	})

	t.Run("returns cached record without fetching", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cached, _ := json.Marshal(domain.ExtractedProductRecord{Name: "Cached milk", EAN: "1"})
		cache.data["product:1"] = cached

		fetcher := NewMockFetcher(productPage(milkBlob))
		svc := newTestService(cache, fetcher)

		record, err := svc.Load(ctx, "1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if record.Name != "Cached milk" {
			t.Errorf("Name = %q, want Cached milk", record.Name)
		}
		if fetcher.CallCount() != 0 {
			t.Errorf("fetcher called %d times, want 0", fetcher.CallCount())
		}
	})

	t.Run("drops undecodable cache entries", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.data["product:1"] = []byte("not json")
		fetcher := NewMockFetcher(productPage(milkBlob))
		svc := newTestService(cache, fetcher)

		record, err := svc.Load(ctx, "1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if record.Name != "Milk" {
			t.Errorf("Name = %q, want Milk", record.Name)
		}
		if fetcher.CallCount() != 1 {
			t.Errorf("fetcher called %d times, want 1", fetcher.CallCount())
		}
	})

	t.Run("cache errors do not fail the lookup", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.getError = errors.New("cache down")
		cache.setError = errors.New("cache down")
		svc := newTestService(cache, NewMockFetcher(productPage(milkBlob)))

		record, err := svc.Load(ctx, "6410405176315")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if record.EAN != "6410405176315" {
			t.Errorf("EAN = %q", record.EAN)
		}
	})

	t.Run("works without a cache", func(t *testing.T) {
		svc := newTestService(nil, NewMockFetcher(productPage(milkBlob)))

		if _, err := svc.Load(ctx, "6410405176315"); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	})

	t.Run("wraps fetch failures as network errors", func(t *testing.T) {
		fetcher := NewMockFetcher("")
		fetcher.err = domain.ErrProductNotFound
		svc := newTestService(NewMockCacheRepository(), fetcher)

		_, err := svc.Load(ctx, "1")
		if !errors.Is(err, domain.ErrNetwork) {
			t.Errorf("error = %v, want ErrNetwork", err)
		}
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("error = %v, want ErrProductNotFound kept", err)
		}
	})

	t.Run("rejects empty content", func(t *testing.T) {
		svc := newTestService(NewMockCacheRepository(), NewMockFetcher("  \n"))

		_, err := svc.Load(ctx, "1")
		if !errors.Is(err, domain.ErrNetwork) {
			t.Errorf("error = %v, want ErrNetwork", err)
		}
	})

	t.Run("rejects upstream error replies", func(t *testing.T) {
		svc := newTestService(NewMockCacheRepository(), NewMockFetcher(`{"error": "Product page returned 404"}`))

		_, err := svc.Load(ctx, "1")
		if !errors.Is(err, domain.ErrNetwork) {
			t.Fatalf("error = %v, want ErrNetwork", err)
		}
		if !strings.Contains(err.Error(), "Product page returned 404") {
			t.Errorf("error = %q, want upstream message", err.Error())
		}
	})

	t.Run("returns parse errors without caching", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := newTestService(cache, NewMockFetcher(productPage(`{"Product:1": `)))

		_, err := svc.Load(ctx, "1")
		var parseErr *domain.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("error = %v, want *ParseError", err)
		}
		if parseErr.Reason != domain.ReasonInvalidJSON {
			t.Errorf("Reason = %q, want %q", parseErr.Reason, domain.ReasonInvalidJSON)
		}
		if cache.setCalled {
			t.Error("failed extraction must not be cached")
		}
	})
}

func TestCheckUpstreamReply(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"html page", "<html></html>", false},
		{"empty", "", true},
		{"error document", `{"error": "timeout"}`, true},
		{"json without error", `{"name": "Maito"}`, false},
		{"empty error field", `{"error": ""}`, false},
		{"broken json", `{"error": `, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkUpstreamReply(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkUpstreamReply(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		ean  string
		want string
	}{
		{"6410405176315", "product:6410405176315"},
		{"6410-4051 76315", "product:6410405176315"},
		{"ABC123", "product:abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.ean, func(t *testing.T) {
			if got := generateCacheKey(tt.ean); got != tt.want {
				t.Errorf("generateCacheKey(%q) = %q, want %q", tt.ean, got, tt.want)
			}
		})
	}
}

func TestBuildView(t *testing.T) {
	record := &domain.ExtractedProductRecord{
		Name:             "Milk",
		ImageURLTemplate: "https://img/{MODIFIERS}/x.{EXTENSION}",
		NutrientGroups: []domain.NutrientGroup{
			{ReferenceQuantity: "100g", Nutrients: []domain.Nutrient{{Name: "Energia", Value: "250kcal"}}},
		},
	}

	view := BuildView(record, 0)

	if view.IsLoading || view.HasError {
		t.Errorf("view flags = loading %v error %v, want both false", view.IsLoading, view.HasError)
	}
	if len(view.DisplayEntries) != 1 || view.DisplayEntries[0].Value != "Milk" {
		t.Errorf("DisplayEntries = %v", view.DisplayEntries)
	}
	if view.NutrientReferenceQuantity != "100g" {
		t.Errorf("NutrientReferenceQuantity = %q, want 100g", view.NutrientReferenceQuantity)
	}
	if view.ImageURL != "https://img/w360h360@_q75/x.webp" {
		t.Errorf("ImageURL = %q", view.ImageURL)
	}
}
