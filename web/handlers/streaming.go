package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/parleylab/parley/internal/agent"
	"github.com/parleylab/parley/internal/core"
	"github.com/parleylab/parley/internal/engine"
)

// startRequest is the body of POST /api/negotiations.
type startRequest struct {
	Scenario  string `json:"scenario"`
	PersonaA  string `json:"persona_a"`
	PersonaB  string `json:"persona_b"`
	MaxRounds int    `json:"max_rounds"`
}

// handleStartNegotiation runs a negotiation and streams its events using
// Server-Sent Events. The connection closes after the result event.
func (h *Handler) handleStartNegotiation(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scenario == "" {
		req.Scenario = "used_car"
	}
	if req.PersonaA == "" {
		req.PersonaA = "none"
	}
	if req.PersonaB == "" {
		req.PersonaB = "none"
	}
	if req.MaxRounds <= 0 {
		req.MaxRounds = h.maxRounds
	}

	sc := h.scenarios.Get(req.Scenario)
	if sc == nil {
		h.writeError(w, http.StatusNotFound, "scenario not found")
		return
	}

	a, err := agent.New(core.PartyA, req.PersonaA, sc, h.oracle)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := agent.New(core.PartyB, req.PersonaB, sc, h.oracle)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming unsupported by response writer")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.logger.Info("streaming negotiation",
		"scenario", req.Scenario,
		"persona_a", req.PersonaA,
		"persona_b", req.PersonaB,
		"remote_addr", r.RemoteAddr)

	for ev := range h.engine.Run(r.Context(), a, b, req.MaxRounds) {
		switch ev := ev.(type) {
		case engine.TurnEvent:
			h.sendSSEEvent(w, flusher, "turn_complete", ev.Turn)
		case engine.StatusEvent:
			h.sendSSEEvent(w, flusher, "status", ev)
		case engine.ResultEvent:
			if ev.Err != nil {
				h.sendSSEEvent(w, flusher, "negotiation_failed", map[string]any{
					"error":  ev.Err.Error(),
					"result": ev.Result,
				})
			} else {
				h.sendSSEEvent(w, flusher, "negotiation_complete", ev.Result)
			}
		}
	}
}

// sendSSEEvent sends a server-sent event.
func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		h.logger.Error("failed to write SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		h.logger.Error("failed to write SSE data", "error", err)
		return
	}
	flusher.Flush()
}
