package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/eaninfo/backend/internal/domain"
)

// ErrorMessagePrefix starts every error message shown to the user
const ErrorMessagePrefix = "Tuotteen tietoja ei voitu hakea: "

// Phase is the stage of an extraction cycle
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// ProductLoader loads the product record for an EAN code
type ProductLoader interface {
	Load(ctx context.Context, ean string) (*domain.ExtractedProductRecord, error)
}

// State is the complete, immutable state of a session. A new State value
// replaces the previous one on every transition.
type State struct {
	Phase        Phase
	Generation   uint64
	Identifier   string
	Entries      []domain.DisplayEntry
	Nutrients    domain.NutrientTable
	ImageURL     string
	ErrorMessage string
}

// View projects the state onto what a client renders
func (s State) View() domain.ProductView {
	view := domain.ProductView{
		IsLoading:                 s.Phase == PhaseLoading,
		HasError:                  s.Phase == PhaseError,
		ErrorMessage:              s.ErrorMessage,
		DisplayEntries:            s.Entries,
		NutrientEntries:           s.Nutrients.Entries,
		NutrientReferenceQuantity: s.Nutrients.ReferenceQuantity,
		ImageURL:                  s.ImageURL,
	}
	if view.DisplayEntries == nil {
		view.DisplayEntries = []domain.DisplayEntry{}
	}
	if view.NutrientEntries == nil {
		view.NutrientEntries = []domain.DisplayEntry{}
	}
	return view
}

// Session is the extraction state machine for one live identifier.
//
// Every presented identifier starts a new cycle tagged with a generation
// number. A cycle only commits its outcome if no newer identifier has been
// presented in the meantime, so the state always describes the most recent
// identifier.
type Session struct {
	loader        ProductLoader
	nutrientGroup int

	mu         sync.RWMutex
	generation uint64
	state      State
}

// NewSession creates an idle session
func NewSession(loader ProductLoader, nutrientGroup int) *Session {
	return &Session{
		loader:        loader,
		nutrientGroup: nutrientGroup,
		state:         State{Phase: PhaseIdle},
	}
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Present starts a cycle for the identifier and blocks until it finishes.
// It returns the session state afterwards, which belongs to a newer cycle if
// one was started while this one ran.
func (s *Session) Present(ctx context.Context, identifier string) State {
	generation, state := s.begin(identifier)
	if state.Phase != PhaseLoading {
		return state
	}
	return s.run(ctx, generation, state.Identifier)
}

// PresentAsync starts a cycle for the identifier in the background and
// returns the loading (or idle) state immediately. The cycle outlives ctx
// cancellation so a closed request cannot leave the session loading forever.
func (s *Session) PresentAsync(ctx context.Context, identifier string) State {
	generation, state := s.begin(identifier)
	if state.Phase != PhaseLoading {
		return state
	}
	go s.run(context.WithoutCancel(ctx), generation, state.Identifier)
	return state
}

// begin bumps the generation and commits the entry state of the new cycle
func (s *Session) begin(identifier string) (uint64, State) {
	identifier = domain.NormalizeIdentifier(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if identifier == "" {
		s.state = State{Phase: PhaseIdle, Generation: s.generation}
	} else {
		s.state = State{Phase: PhaseLoading, Generation: s.generation, Identifier: identifier}
	}
	return s.generation, s.state
}

// run loads the product outside the lock and commits the outcome
func (s *Session) run(ctx context.Context, generation uint64, identifier string) State {
	record, err := s.loader.Load(ctx, identifier)
	return s.commit(generation, s.outcome(generation, identifier, record, err))
}

// outcome builds the terminal state of a cycle
func (s *Session) outcome(generation uint64, identifier string, record *domain.ExtractedProductRecord, err error) State {
	next := State{Generation: generation, Identifier: identifier}

	switch {
	case errors.Is(err, domain.ErrIdentifierMissing):
		next.Phase = PhaseIdle
		next.Identifier = ""
	case err != nil:
		next.Phase = PhaseError
		next.ErrorMessage = ErrorMessagePrefix + FailureReason(err)
	default:
		view := BuildView(record, s.nutrientGroup)
		next.Phase = PhaseSuccess
		next.Entries = view.DisplayEntries
		next.Nutrients = domain.NutrientTable{
			Entries:           view.NutrientEntries,
			ReferenceQuantity: view.NutrientReferenceQuantity,
		}
		next.ImageURL = view.ImageURL
	}
	return next
}

// commit stores next unless a newer cycle has started
func (s *Session) commit(generation uint64, next State) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		slog.Debug("[session] discarding stale cycle",
			"generation", generation,
			"current", s.generation,
			"identifier", next.Identifier)
		return s.state
	}
	s.state = next
	return next
}

// FailureReason is the part of an error message shown after the prefix.
// Parse failures report their reason code, everything else its message.
func FailureReason(err error) string {
	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Reason
	}
	return err.Error()
}
