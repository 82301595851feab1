package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/in"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

const maxBodySize = 1 << 20 // 1MB

// UseCases bundles the visit operations the HTTP layer exposes.
type UseCases struct {
	StartJourney in.StartJourneyUseCase
	StartService in.StartServiceUseCase
	Complete     in.CompleteVisitUseCase
	Pause        in.PauseVisitUseCase
	Resume       in.ResumeVisitUseCase
	Unblock      in.UnblockVisitUseCase
	Reassign     in.ReassignVisitUseCase
	Join         in.JoinVisitUseCase
	Get          in.GetVisitUseCase
	List         in.ListVisitsUseCase
}

// HTTPHandler serves the visit lifecycle API.
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

// RegisterRoutes registers all visit routes.
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	// liveness
	mux.HandleFunc("GET /health", h.handleHealth)

	// lifecycle transitions
	mux.HandleFunc("POST /visits/start-journey", authMiddleware(h.handleStartJourney))
	mux.HandleFunc("POST /visits/{visit_id}/start-service", authMiddleware(h.handleStartService))
	mux.HandleFunc("POST /visits/{visit_id}/complete", authMiddleware(h.handleComplete))
	mux.HandleFunc("POST /visits/{visit_id}/pause", authMiddleware(h.handlePause))
	mux.HandleFunc("POST /visits/{visit_id}/resume", authMiddleware(h.handleResume))
	mux.HandleFunc("POST /visits/{visit_id}/unblock", authMiddleware(h.handleUnblock))
	mux.HandleFunc("POST /visits/{visit_id}/reassign", authMiddleware(h.handleReassign))
	mux.HandleFunc("POST /visits/{visit_id}/join", authMiddleware(h.handleJoin))

	// reads
	mux.HandleFunc("GET /visits", authMiddleware(h.handleListVisits))
	mux.HandleFunc("GET /visits/{visit_id}", authMiddleware(h.handleGetVisit))
}

// handleHealth serves the liveness probe.
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleStartJourney handles POST /visits/start-journey.
func (h *HTTPHandler) handleStartJourney(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var input in.StartJourneyInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)

	view, err := h.uc.StartJourney.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, view)
}

// handleStartService handles POST /visits/{visit_id}/start-service.
func (h *HTTPHandler) handleStartService(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	var input in.StartServiceInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)
	input.VisitID = visitID

	view, err := h.uc.StartService.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleComplete handles POST /visits/{visit_id}/complete.
func (h *HTTPHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	var input in.CompleteVisitInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)
	input.VisitID = visitID

	view, err := h.uc.Complete.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handlePause handles POST /visits/{visit_id}/pause.
func (h *HTTPHandler) handlePause(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	var input in.PauseVisitInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)
	input.VisitID = visitID

	view, err := h.uc.Pause.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleResume handles POST /visits/{visit_id}/resume.
func (h *HTTPHandler) handleResume(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	var input in.ResumeVisitInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)
	input.VisitID = visitID

	view, err := h.uc.Resume.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleUnblock handles POST /visits/{visit_id}/unblock.
func (h *HTTPHandler) handleUnblock(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	var input in.UnblockVisitInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)
	input.VisitID = visitID

	view, err := h.uc.Unblock.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleReassign handles POST /visits/{visit_id}/reassign.
func (h *HTTPHandler) handleReassign(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	var input in.ReassignVisitInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)
	input.VisitID = visitID

	view, err := h.uc.Reassign.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleJoin handles POST /visits/{visit_id}/join.
func (h *HTTPHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	var input in.JoinVisitInput
	if !h.decode(w, r, &input) {
		return
	}
	input.Actor = actor
	input.RequestID = requestID(r)
	input.VisitID = visitID

	view, err := h.uc.Join.Execute(r.Context(), input)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleGetVisit handles GET /visits/{visit_id}.
func (h *HTTPHandler) handleGetVisit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	visitID, ok := h.visitID(w, r)
	if !ok {
		return
	}

	view, err := h.uc.Get.Execute(r.Context(), in.GetVisitInput{
		Actor:   actor,
		VisitID: visitID,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

// handleListVisits handles GET /visits.
func (h *HTTPHandler) handleListVisits(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	output, err := h.uc.List.Execute(r.Context(), in.ListVisitsInput{
		Actor:  actor,
		UserID: r.URL.Query().Get("userId"),
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

// visitID reads and validates the visit id path segment. Malformed ids get
// the same 404 as missing visits.
func (h *HTTPHandler) visitID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("visit_id")
	if _, err := uuid.Parse(id); err != nil {
		h.respondError(w, http.StatusNotFound, "visit not found")
		return "", false
	}
	return id, true
}

// decode parses the request body into dst. An empty body leaves dst at its
// zero value; field validation happens in the use cases. Unknown fields are
// tolerated so newer mobile builds can talk to an older server.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
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
		transitionErr *domain.InvalidTransitionError
		conflictErr   *domain.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &authzErr):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrVisitNotFound):
		h.respondError(w, http.StatusNotFound, "visit not found")
	case errors.Is(err, domain.ErrEngineerNotFound):
		h.respondError(w, http.StatusNotFound, "engineer not found")
	case errors.As(err, &transitionErr):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflictErr):
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

// requestID reads the client idempotency key, if any.
func requestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
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
