package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kazari/kazarid/internal/broker"
	"github.com/kazari/kazarid/internal/config"
	"github.com/kazari/kazarid/internal/recorder"
	"github.com/kazari/kazarid/internal/timer"
)

// Handler serves the consumer-facing command and query API. Every
// mutation goes through the broker; the handler never touches timer
// state directly.
type Handler struct {
	config *config.Config
	broker *broker.Broker
	rec    *recorder.Recorder

	// onConfigChange persists a successful configuration update. May be
	// nil in tests.
	onConfigChange func(timer.Config)
}

func NewHandler(cfg *config.Config, b *broker.Broker, rec *recorder.Recorder) *Handler {
	return &Handler{
		config: cfg,
		broker: b,
		rec:    rec,
	}
}

// OnConfigChange registers a hook run after each accepted config update.
func (h *Handler) OnConfigChange(fn func(timer.Config)) {
	h.onConfigChange = fn
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/timer", h.handleTimer)
	mux.HandleFunc("/api/timer/start", h.command(broker.CommandStart))
	mux.HandleFunc("/api/timer/pause", h.command(broker.CommandPause))
	mux.HandleFunc("/api/timer/reset", h.command(broker.CommandReset))
	mux.HandleFunc("/api/timer/skip", h.command(broker.CommandSkip))
	mux.HandleFunc("/api/timer/config", h.handleConfigure)
	mux.HandleFunc("/api/config", h.handleConfig)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/stats", h.handleStats)
	mux.HandleFunc("/api/events", h.handleEvents)

	mux.HandleFunc("/health", h.handleHealth)
}

func (h *Handler) handleTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, stateResponseFrom(h.broker.Snapshot()))
}

func (h *Handler) command(cmd broker.CommandType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state, err := h.broker.Dispatch(broker.Command{Type: cmd})
		if err != nil {
			respondCommandError(w, err)
			return
		}
		respondJSON(w, stateResponseFrom(state))
	}
}

func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	patch := req.toPatch()
	state, err := h.broker.Dispatch(broker.Command{Type: broker.CommandConfigure, Patch: &patch})
	if err != nil {
		respondCommandError(w, err)
		return
	}

	if h.onConfigChange != nil {
		h.onConfigChange(h.broker.Config())
	}
	respondJSON(w, stateResponseFrom(state))
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, configResponseFrom(h.broker.Config()))
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	limit := 100
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	sessions, err := h.rec.Latest(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch sessions: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, sessionResponsesFrom(sessions))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	stats, err := h.rec.Stats(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate stats: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, stats)
}

// handleEvents streams engine events over SSE. Each consumer window
// holds one of these open; the first frame is always the current state.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.broker.Subscribe(64)
	defer sub.Cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub.Events():
			if !open {
				return
			}
			payload, err := json.Marshal(eventResponseFrom(event))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"status": "ok",
		"time":   time.Now(),
	})
}

func respondCommandError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, timer.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, timer.ErrConfiguration):
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
