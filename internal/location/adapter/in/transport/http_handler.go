package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phgsc/field-service-management-sub000/internal/location/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
)

const maxBodySize = 1 << 20 // 1MB

// HTTPHandler serves the location ledger API.
type HTTPHandler struct {
	recordUC  in.RecordSampleUseCase
	latestUC  in.GetLatestUseCase
	historyUC in.GetHistoryUseCase
	limiter   *EngineerLimiter
	log       *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(
	recordUC in.RecordSampleUseCase,
	latestUC in.GetLatestUseCase,
	historyUC in.GetHistoryUseCase,
	limiter *EngineerLimiter,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		recordUC:  recordUC,
		latestUC:  latestUC,
		historyUC: historyUC,
		limiter:   limiter,
		log:       log,
	}
}

// RegisterRoutes registers all location routes.
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	// liveness
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("POST /location", authMiddleware(h.handleRecordSample))
	mux.HandleFunc("GET /engineers/{engineer_id}/location", authMiddleware(h.handleGetLatest))
	mux.HandleFunc("GET /engineers/{engineer_id}/location/history", authMiddleware(h.handleGetHistory))
}

// handleHealth serves the liveness probe.
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleRecordSample handles POST /location. Throttled requests are refused
// before anything touches the ledger.
func (h *HTTPHandler) handleRecordSample(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if !h.limiter.Allow(actor.ID) {
		metrics.SamplesThrottled.Inc()
		h.respondError(w, http.StatusTooManyRequests, "location sample rate limit exceeded")
		return
	}

	var input in.RecordSampleInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor

	view, err := h.recordUC.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, view)
}

// handleGetLatest handles GET /engineers/{engineer_id}/location.
func (h *HTTPHandler) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	engineerID, ok := h.engineerID(w, r)
	if !ok {
		return
	}

	view, err := h.latestUC.Execute(r.Context(), in.GetLatestInput{
		Actor:      actor,
		EngineerID: engineerID,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleGetHistory handles GET /engineers/{engineer_id}/location/history.
func (h *HTTPHandler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	engineerID, ok := h.engineerID(w, r)
	if !ok {
		return
	}

	from, ok := h.parseTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := h.parseTime(w, r, "to")
	if !ok {
		return
	}

	output, err := h.historyUC.Execute(r.Context(), in.GetHistoryInput{
		Actor:      actor,
		EngineerID: engineerID,
		From:       from,
		To:         to,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// actor reads the authenticated caller from the request context.
func (h *HTTPHandler) actor(w http.ResponseWriter, r *http.Request) (in.Actor, bool) {
	a, ok := auth.ActorFromContext(r.Context())
	if !ok || a.ID == "" {
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return in.Actor{}, false
	}
	return in.Actor{ID: a.ID, IsAdmin: a.IsAdmin()}, true
}

// engineerID reads and validates the engineer id path segment.
func (h *HTTPHandler) engineerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("engineer_id")
	if _, err := uuid.Parse(id); err != nil {
		h.respondError(w, http.StatusNotFound, "engineer not found")
		return "", false
	}
	return id, true
}

// parseTime reads an optional RFC3339 query parameter.
func (h *HTTPHandler) parseTime(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, key+" must be RFC3339")
		return time.Time{}, false
	}
	return t, true
}

// decode parses the request body into dst. Unknown fields are tolerated so
// newer mobile builds can talk to an older server.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			h.respondError(w, http.StatusBadRequest, "empty request body")
			return false
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "invalid request format")
		return false
	}
	return true
}

// handleUseCaseError maps use case failures to HTTP statuses.
func (h *HTTPHandler) handleUseCaseError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		authzErr      *domain.AuthorizationError
	)
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &authzErr):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrSampleNotFound):
		h.respondError(w, http.StatusNotFound, "no location recorded")
	case errors.Is(err, domain.ErrEngineerNotFound):
		h.respondError(w, http.StatusNotFound, "engineer not found")
	default:
		h.log.Error(logger.Entry{
			Action:  "usecase_error",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondJSON writes a JSON response.
func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error(logger.Entry{
			Action:  "encode_response_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}

// respondError writes a JSON error response.
func (h *HTTPHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
