package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/gemtable/go/internal/models"
	"github.com/mcdev12/gemtable/go/internal/table"
	"github.com/mcdev12/gemtable/go/internal/tokendraft"
	"github.com/rs/zerolog/log"
)

// Engine is the client surface the inspector drives.
type Engine interface {
	View() table.View
	Subscribe() (<-chan table.View, func())
	CreateRoom(ctx context.Context, hostName string, turnSeconds int) error
	JoinRoom(ctx context.Context, roomRef, playerName string) error
	StartGame(ctx context.Context) error
	Refresh(ctx context.Context) error
	Leave(ctx context.Context)
	Perform(ctx context.Context, action models.Action) error
	AdjustDraft(color models.Color, delta int) (tokendraft.Draft, error)
	SubmitDraft(ctx context.Context) error
	ResetDraft() tokendraft.Draft
	DismissNotification(id int64) bool
}

var _ Engine = (*table.Client)(nil)

// Connectivity reports whether an optional dependency is reachable.
type Connectivity interface {
	Connected() bool
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createRoomRequest struct {
	HostName    string `json:"hostName"`
	TurnSeconds int    `json:"turnSeconds"`
}

type joinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type adjustDraftRequest struct {
	Color string `json:"color"`
	Delta int    `json:"delta"`
}

type healthResponse struct {
	Status     string                `json:"status"`
	Connection table.ConnectionState `json:"connection"`
	NATS       string                `json:"nats"`
}

// Handler serves the inspector API.
type Handler struct {
	engine Engine
	nats   Connectivity
}

// NewHandler creates a handler. nats may be nil when mirroring is disabled.
func NewHandler(engine Engine, nats Connectivity) *Handler {
	return &Handler{engine: engine, nats: nats}
}

// Routes returns the inspector router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", h.handleView)
		r.Get("/events", h.handleEvents)

		r.Post("/rooms", h.handleCreateRoom)
		r.Post("/rooms/join", h.handleJoinRoom)
		r.Post("/rooms/start", h.intent(h.engine.StartGame))
		r.Post("/rooms/refresh", h.intent(h.engine.Refresh))
		r.Post("/leave", h.handleLeave)

		r.Post("/draft/adjust", h.handleAdjustDraft)
		r.Post("/draft/submit", h.intent(h.engine.SubmitDraft))
		r.Post("/draft/reset", h.handleResetDraft)

		r.Post("/actions", h.handlePerform)
		r.Delete("/notifications/{id}", h.handleDismiss)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Connection: h.engine.View().Connection,
		NATS:       "disabled",
	}
	if h.nats != nil {
		resp.NATS = "disconnected"
		if h.nats.Connected() {
			resp.NATS = "connected"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.View())
}

// handleEvents streams a view after every client change as server-sent events.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming is not supported")
		return
	}

	views, cancel := h.engine.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, h.engine.View()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			if err := writeEvent(w, v); err != nil {
				log.Debug().Err(err).Msg("view stream closed")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decode(w, r, &req) {
		return
	}
	_ = h.engine.CreateRoom(r.Context(), req.HostName, req.TurnSeconds)
	h.handleView(w, r)
}

func (h *Handler) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RoomID == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "roomId is required")
		return
	}
	_ = h.engine.JoinRoom(r.Context(), req.RoomID, req.PlayerName)
	h.handleView(w, r)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	h.engine.Leave(r.Context())
	h.handleView(w, r)
}

func (h *Handler) handleAdjustDraft(w http.ResponseWriter, r *http.Request) {
	var req adjustDraftRequest
	if !decode(w, r, &req) {
		return
	}
	color, ok := models.ParseColor(req.Color)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_argument", fmt.Sprintf("unknown color %q", req.Color))
		return
	}
	_, _ = h.engine.AdjustDraft(color, req.Delta)
	h.handleView(w, r)
}

func (h *Handler) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetDraft()
	h.handleView(w, r)
}

func (h *Handler) handlePerform(w http.ResponseWriter, r *http.Request) {
	var action models.Action
	if !decode(w, r, &action) {
		return
	}
	if action.Type == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "action type is required")
		return
	}
	_ = h.engine.Perform(r.Context(), action)
	h.handleView(w, r)
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "notification id must be an integer")
		return
	}
	if !h.engine.DismissNotification(id) {
		writeError(w, http.StatusNotFound, "not_found", "notification not found")
		return
	}
	h.handleView(w, r)
}

// intent adapts a body-less client operation. Failures are already reflected
// in the view, so the response is always the view.
func (h *Handler) intent(op func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = op(r.Context())
		h.handleView(w, r)
	}
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeEvent(w io.Writer, v table.View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: view\ndata: %s\n\n", data)
	return err
}
