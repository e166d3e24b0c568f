package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/service"
	pkglog "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/log"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/middleware"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/response"
)

// maxBodyBytes caps request bodies; chat payloads are tiny.
const maxBodyBytes = 64 << 10

// HTTPHandler handles HTTP API requests for the lobby.
type HTTPHandler struct {
	service service.PresenceService
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(svc service.PresenceService) *HTTPHandler {
	return &HTTPHandler{
		service: svc,
	}
}

// JoinRequest is the body of POST /participants.
type JoinRequest struct {
	Name string `json:"name"`
}

// RegisterRoutes mounts every endpoint on router.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/participants", h.Join).Methods(http.MethodPost)
	router.HandleFunc("/participants", h.ListParticipants).Methods(http.MethodGet)
	router.HandleFunc("/messages", h.SendMessage).Methods(http.MethodPost)
	router.HandleFunc("/messages", h.ListMessages).Methods(http.MethodGet)
	router.HandleFunc("/status", h.Heartbeat).Methods(http.MethodPost)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
}

// Join handles POST /participants
func (h *HTTPHandler) Join(w http.ResponseWriter, r *http.Request) {
	var body JoinRequest
	if !decode(w, r, &body) {
		return
	}

	if err := h.service.Join(r.Context(), body.Name); err != nil {
		writeError(w, r, err, http.StatusNotFound)
		return
	}
	response.Status(w, http.StatusCreated)
}

// ListParticipants handles GET /participants
func (h *HTTPHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Participants(r.Context())
	if err != nil {
		writeError(w, r, err, http.StatusNotFound)
		return
	}
	response.JSON(w, http.StatusOK, list)
}

// SendMessage handles POST /messages
// An unknown sender is a semantic error of the request, hence 422.
func (h *HTTPHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body service.SendInput
	if !decode(w, r, &body) {
		return
	}

	if err := h.service.Send(r.Context(), middleware.Identity(r.Context()), body); err != nil {
		writeError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	response.Status(w, http.StatusCreated)
}

// ListMessages handles GET /messages?limit=N
func (h *HTTPHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.Messages(r.Context(), middleware.Identity(r.Context()), r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, r, err, http.StatusNotFound)
		return
	}
	response.JSON(w, http.StatusOK, msgs)
}

// Heartbeat handles POST /status
func (h *HTTPHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Heartbeat(r.Context(), middleware.Identity(r.Context())); err != nil {
		writeError(w, r, err, http.StatusNotFound)
		return
	}
	response.Status(w, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, "request body too large")
			return false
		}
		response.Unprocessable(w, "invalid request body", err.Error())
		return false
	}
	return true
}

// writeError maps service errors to HTTP statuses. notFoundStatus differs
// per endpoint.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFoundStatus int) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Unprocessable(w, domain.ErrValidation.Error(), verr.Details...)
	case errors.Is(err, domain.ErrValidation):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, domain.ErrConflict):
		response.Conflict(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		if notFoundStatus == http.StatusUnprocessableEntity {
			response.Unprocessable(w, "unknown sender")
			return
		}
		response.NotFound(w, err.Error())
	default:
		l := pkglog.Ctx(r.Context())
		l.Error().Err(err).Msg("request failed")
		response.InternalError(w, "internal server error")
	}
}
