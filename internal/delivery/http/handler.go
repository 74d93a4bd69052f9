package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eaninfo/backend/internal/domain"
	"github.com/eaninfo/backend/internal/usecase"
)

const (
	serviceName    = "eaninfo-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products      *usecase.ProductService
	sessions      *usecase.SessionRegistry
	nutrientGroup int
}

// NewHandler creates a new HTTP handler. Either dependency may be nil, in
// which case its endpoints answer 503.
func NewHandler(products *usecase.ProductService, sessions *usecase.SessionRegistry, nutrientGroup int) *Handler {
	return &Handler{
		products:      products,
		sessions:      sessions,
		nutrientGroup: nutrientGroup,
	}
}

// presentRequest is the body of PUT /sessions/:id/identifier
type presentRequest struct {
	EAN string `json:"ean"`
}

// sessionResponse describes a session and what it currently renders
type sessionResponse struct {
	SessionID  string             `json:"sessionId"`
	Phase      usecase.Phase      `json:"phase"`
	Generation uint64             `json:"generation"`
	Identifier string             `json:"identifier,omitempty"`
	View       domain.ProductView `json:"view"`
}

func newSessionResponse(id string, state usecase.State) sessionResponse {
	return sessionResponse{
		SessionID:  id,
		Phase:      state.Phase,
		Generation: state.Generation,
		Identifier: state.Identifier,
		View:       state.View(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// GetProduct runs one extraction cycle and returns the rendered view
func (h *Handler) GetProduct(c *gin.Context) {
	if h.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product service not configured"})
		return
	}

	group, err := h.nutrientGroupParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorView(err))
		return
	}

	ean := c.Param("ean")
	record, err := h.products.Load(c.Request.Context(), ean)
	if err != nil {
		status := statusForError(err)
		slog.Info("[http] product lookup failed", "ean", ean, "status", status, "error", err)
		c.JSON(status, errorView(err))
		return
	}

	c.JSON(http.StatusOK, usecase.BuildView(record, group))
}

// GetProductRecord returns the normalized record without formatting
func (h *Handler) GetProductRecord(c *gin.Context) {
	if h.products == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product service not configured"})
		return
	}

	record, err := h.products.Load(c.Request.Context(), c.Param("ean"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": usecase.ErrorMessagePrefix + usecase.FailureReason(err)})
		return
	}

	c.JSON(http.StatusOK, record)
}

// CreateSession registers a new idle session
func (h *Handler) CreateSession(c *gin.Context) {
	if h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sessions not configured"})
		return
	}

	id, session := h.sessions.Create()
	slog.Debug("[http] session created", "session", id)
	c.JSON(http.StatusCreated, newSessionResponse(id, session.Snapshot()))
}

// PresentIdentifier starts a background cycle for a new identifier
func (h *Handler) PresentIdentifier(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req presentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidRequest.Error()})
		return
	}

	state := session.PresentAsync(c.Request.Context(), req.EAN)
	c.JSON(http.StatusAccepted, newSessionResponse(c.Param("id"), state))
}

// GetSession returns the current state of a session
func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(c.Param("id"), session.Snapshot()))
}

func (h *Handler) lookupSession(c *gin.Context) (*usecase.Session, bool) {
	if h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sessions not configured"})
		return nil, false
	}

	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return session, true
}

func (h *Handler) nutrientGroupParam(c *gin.Context) (int, error) {
	raw, ok := c.GetQuery("nutrientGroup")
	if !ok {
		return h.nutrientGroup, nil
	}
	group, err := strconv.Atoi(raw)
	if err != nil || group < 0 {
		return 0, domain.ErrInvalidRequest
	}
	return group, nil
}

// errorView renders a failed cycle the way a session would
func errorView(err error) domain.ProductView {
	return domain.ProductView{
		HasError:        true,
		ErrorMessage:    usecase.ErrorMessagePrefix + usecase.FailureReason(err),
		DisplayEntries:  []domain.DisplayEntry{},
		NutrientEntries: []domain.DisplayEntry{},
	}
}

// statusForError maps domain errors onto HTTP status codes.
// Not found is checked first since the service wraps it as a network error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrIdentifierMissing), errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
