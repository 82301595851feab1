package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phgsc/field-service-management-sub000/internal/admin/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/user"
)

const maxBodySize = 1 << 20 // 1MB

// UseCases bundles the operations the dispatch API exposes.
type UseCases struct {
	Login          in.LoginUseCase
	CreateEngineer in.CreateEngineerUseCase
	ListEngineers  in.ListEngineersUseCase
	Overview       in.GetOverviewUseCase
	Calendar       in.GetCalendarUseCase
	CreateEntry    in.CreateEntryUseCase
	ListEntries    in.ListEntriesUseCase
	TravelReport   in.TravelReportUseCase
}

// HTTPHandler serves the dispatch and account API.
type HTTPHandler struct {
	uc  UseCases
	log *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(uc UseCases, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		uc:  uc,
		log: log,
	}
}

// RegisterRoutes registers all admin routes. Login stays public; role checks
// happen in the use cases.
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	// liveness
	mux.HandleFunc("GET /health", h.handleHealth)

	// accounts
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /admin/engineers", authMiddleware(h.handleListEngineers))
	mux.HandleFunc("POST /admin/engineers", authMiddleware(h.handleCreateEngineer))

	// dispatch screens
	mux.HandleFunc("GET /admin/overview", authMiddleware(h.handleOverview))
	mux.HandleFunc("GET /admin/engineers/{engineer_id}/travel", authMiddleware(h.handleTravelReport))

	// calendar
	mux.HandleFunc("GET /calendar/events", authMiddleware(h.handleCalendar))
	mux.HandleFunc("POST /schedule-entries", authMiddleware(h.handleCreateEntry))
	mux.HandleFunc("GET /schedule-entries", authMiddleware(h.handleListEntries))
}

// handleHealth serves the liveness probe.
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleLogin handles POST /auth/login.
func (h *HTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input in.LoginInput
	if !h.decode(w, r, &input) {
		return
	}

	output, err := h.uc.Login.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// handleCreateEngineer handles POST /admin/engineers.
func (h *HTTPHandler) handleCreateEngineer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var input in.CreateEngineerInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor

	view, err := h.uc.CreateEngineer.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, view)
}

// handleListEngineers handles GET /admin/engineers.
func (h *HTTPHandler) handleListEngineers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	output, err := h.uc.ListEngineers.Execute(r.Context(), in.ListEngineersInput{Actor: actor})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// handleOverview handles GET /admin/overview.
func (h *HTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	output, err := h.uc.Overview.Execute(r.Context(), in.GetOverviewInput{Actor: actor})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// handleTravelReport handles GET /admin/engineers/{engineer_id}/travel.
func (h *HTTPHandler) handleTravelReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	engineerID, ok := h.engineerID(w, r)
	if !ok {
		return
	}

	output, err := h.uc.TravelReport.Execute(r.Context(), in.TravelReportInput{
		Actor:      actor,
		EngineerID: engineerID,
		Date:       r.URL.Query().Get("date"),
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// handleCalendar handles GET /calendar/events.
func (h *HTTPHandler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
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

	output, err := h.uc.Calendar.Execute(r.Context(), in.GetCalendarInput{
		Actor:  actor,
		UserID: r.URL.Query().Get("userId"),
		From:   from,
		To:     to,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// handleCreateEntry handles POST /schedule-entries.
func (h *HTTPHandler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var input in.CreateEntryInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor

	view, err := h.uc.CreateEntry.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, view)
}

// handleListEntries handles GET /schedule-entries.
func (h *HTTPHandler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
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

	output, err := h.uc.ListEntries.Execute(r.Context(), in.ListEntriesInput{
		Actor:  actor,
		UserID: r.URL.Query().Get("userId"),
		From:   from,
		To:     to,
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

// engineerID reads and validates the engineer id path segment. Malformed ids
// get the same 404 as unknown engineers.
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

// decode parses the request body into dst. The admin mutations all carry
// required fields, so an empty body is rejected here.
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
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &authzErr):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrEngineerNotFound), errors.Is(err, user.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "engineer not found")
	case errors.Is(err, user.ErrEmailTaken):
		h.respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error(logger.Entry{
			Action:  "usecase_error",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error(logger.Entry{
			Action:  "response_encode_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
