package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/eaninfo/backend/internal/domain"
)

func TestSessionRegistry(t *testing.T) {
	loader := newTestService(nil, NewMockFetcher(""))

	t.Run("creates idle sessions with distinct ids", func(t *testing.T) {
		registry := NewSessionRegistry(loader, SessionRegistryConfig{})

		id1, s1 := registry.Create()
		id2, _ := registry.Create()
		if id1 == "" || id1 == id2 {
			t.Errorf("ids = %q, %q, want distinct non-empty ids", id1, id2)
		}
		if s1.Snapshot().Phase != PhaseIdle {
			t.Errorf("Phase = %v, want idle", s1.Snapshot().Phase)
		}
		if registry.Len() != 2 {
			t.Errorf("Len() = %d, want 2", registry.Len())
		}
	})

	t.Run("returns the registered session", func(t *testing.T) {
		registry := NewSessionRegistry(loader, SessionRegistryConfig{})
		id, created := registry.Create()

		got, err := registry.Get(id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != created {
			t.Error("Get() returned a different session")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		registry := NewSessionRegistry(loader, SessionRegistryConfig{})

		_, err := registry.Get("missing")
		if !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("evicts the least recently used session", func(t *testing.T) {
		registry := NewSessionRegistry(loader, SessionRegistryConfig{Capacity: 2})
		first, _ := registry.Create()
		second, _ := registry.Create()

		if _, err := registry.Get(first); err != nil {
			t.Fatalf("Get(first) error = %v", err)
		}
		registry.Create()

		if _, err := registry.Get(second); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("second session should have been evicted, err = %v", err)
		}
		if _, err := registry.Get(first); err != nil {
			t.Errorf("first session should survive, err = %v", err)
		}
	})

	t.Run("expires idle sessions", func(t *testing.T) {
		registry := NewSessionRegistry(loader, SessionRegistryConfig{TTL: 20 * time.Millisecond})
		id, _ := registry.Create()

		time.Sleep(60 * time.Millisecond)

		if _, err := registry.Get(id); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("error = %v, want ErrSessionNotFound after TTL", err)
		}
	})
}
