package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/eaninfo/backend/internal/domain"
)

// SessionRegistryConfig holds configuration for the session registry
type SessionRegistryConfig struct {
	Capacity      int
	TTL           time.Duration
	NutrientGroup int
}

// SessionRegistry keeps the live sessions, evicting the least recently used
// one when full and any session idle for longer than the TTL.
type SessionRegistry struct {
	loader        ProductLoader
	nutrientGroup int
	sessions      *expirable.LRU[string, *Session]
}

// NewSessionRegistry creates a session registry
func NewSessionRegistry(loader ProductLoader, config SessionRegistryConfig) *SessionRegistry {
	capacity := config.Capacity
	if capacity <= 0 {
		capacity = 1024
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &SessionRegistry{
		loader:        loader,
		nutrientGroup: config.NutrientGroup,
		sessions:      expirable.NewLRU[string, *Session](capacity, nil, ttl),
	}
}

// Create registers a new idle session and returns its id
func (r *SessionRegistry) Create() (string, *Session) {
	id := uuid.NewString()
	session := NewSession(r.loader, r.nutrientGroup)
	r.sessions.Add(id, session)
	return id, session
}

// Get returns the session with the given id and refreshes its TTL
func (r *SessionRegistry) Get(id string) (*Session, error) {
	session, ok := r.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	r.sessions.Add(id, session)
	return session, nil
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	return r.sessions.Len()
}
