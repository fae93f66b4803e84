package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
	"github.com/desertthunder/sia/internal/soundcloud"
)

const maxBodyBytes = 64 << 10

// EmbedHandler serves the embed registration and event API:
//
//	POST   /embeds              register {page, src}
//	GET    /embeds              list embeds
//	POST   /embeds/{id}/events  deliver a [RawEvent]
//	DELETE /embeds/{id}         dispose an embed
type EmbedHandler struct {
	registry *Registry
	logger   *log.Logger
}

// NewEmbedHandler creates an [EmbedHandler] backed by registry.
func NewEmbedHandler(registry *Registry, logger *log.Logger) *EmbedHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &EmbedHandler{registry: registry, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *EmbedHandler) Routes() []string {
	return []string{
		"POST /embeds",
		"GET /embeds",
		"POST /embeds/{id}/events",
		"DELETE /embeds/{id}",
	}
}

// ServeHTTP dispatches on the matched route pattern.
func (h *EmbedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "POST /embeds":
		h.create(w, r)
	case "GET /embeds":
		writeJSON(w, http.StatusOK, h.registry.List())
	case "POST /embeds/{id}/events":
		h.event(w, r)
	case "DELETE /embeds/{id}":
		h.remove(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type createRequest struct {
	Page string `json:"page"`
	Src  string `json:"src"`
}

func (h *EmbedHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	embed, err := h.registry.Register(req.Page, req.Src)
	switch {
	case errors.Is(err, soundcloud.ErrAlreadyBound):
		writeError(w, http.StatusConflict, "embed already registered")
		return
	case errors.Is(err, shared.ErrMissingArgument):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, soundcloud.ErrBindFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to register embed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, embed.Info())
}

func (h *EmbedHandler) event(w http.ResponseWriter, r *http.Request) {
	embed, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var ev RawEvent
	if err := decodeJSON(r, &ev, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ev.Event == "" {
		writeError(w, http.StatusBadRequest, "event is required")
		return
	}

	delivered := embed.Deliver(ev)
	writeJSON(w, http.StatusAccepted, map[string]bool{"delivered": delivered})
}

func (h *EmbedHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Remove(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthHandler reports liveness and the number of registered embeds.
func HealthHandler(registry *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "embeds": registry.Len()})
	})
}

// decodeJSON reads one JSON value from the request body. Player events carry fields that vary by widget version,
// so only strict bodies reject unknown fields.
func decodeJSON(r *http.Request, v any, strict bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return errors.Join(shared.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
