// Package httpapi exposes the combat engine over a JSON HTTP API. The tap
// circle lives client-side; the API only ever receives tap angles and hands
// back resolved outcomes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/emberworks/arena/internal/game/combat"
	"github.com/emberworks/arena/internal/game/dialogue"
)

// playerHeader carries the authenticated player identity. Authentication
// itself happens upstream; by the time a request reaches this API the
// header is trusted.
const playerHeader = "X-Player-ID"

// Handler routes combat API requests to the engine.
type Handler struct {
	engine *combat.Engine
	sink   *dialogue.MemorySink
	logger *zap.Logger
}

// NewHandler creates a Handler. sink may be nil when the dialogue
// side-channel is disabled.
//
// Precondition: engine and logger must be non-nil.
func NewHandler(engine *combat.Engine, sink *dialogue.MemorySink, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, sink: sink, logger: logger}
}

// Router builds the versioned route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/combat", h.handleStart).Methods(http.MethodPost)
	v1.HandleFunc("/combat/{id}", h.handleGet).Methods(http.MethodGet)
	v1.HandleFunc("/combat/{id}/attack", h.handleAttack).Methods(http.MethodPost)
	v1.HandleFunc("/combat/{id}/defend", h.handleDefend).Methods(http.MethodPost)
	v1.HandleFunc("/combat/{id}/complete", h.handleComplete).Methods(http.MethodPost)
	v1.HandleFunc("/combat/{id}/abandon", h.handleAbandon).Methods(http.MethodPost)
	v1.HandleFunc("/combat/{id}/dialogue", h.handleDialogue).Methods(http.MethodGet)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	var req startRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.engine.StartCombat(r.Context(), playerID, req.LocationID, req.Level)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	sess, found := h.engine.SessionForRecovery(mux.Vars(r)["id"], playerID)
	if !found {
		h.writeError(w, combat.ErrSessionNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (h *Handler) handleAttack(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	var req tapRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.engine.ExecuteAttack(r.Context(), mux.Vars(r)["id"], playerID, req.TapDegrees)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newAttackResponse(out))
}

func (h *Handler) handleDefend(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	var req tapRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.engine.ExecuteDefense(r.Context(), mux.Vars(r)["id"], playerID, req.TapDegrees)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newDefenseResponse(out))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	sessionID := mux.Vars(r)["id"]
	bundle, log, err := h.engine.CompleteCombat(r.Context(), sessionID, playerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.sink != nil {
		h.sink.Forget(sessionID)
	}
	h.writeJSON(w, http.StatusOK, completeResponse{Rewards: bundle, Log: log})
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	sessionID := mux.Vars(r)["id"]
	if err := h.engine.AbandonCombat(r.Context(), sessionID, playerID); err != nil {
		h.writeError(w, err)
		return
	}
	if h.sink != nil {
		h.sink.Forget(sessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDialogue(w http.ResponseWriter, r *http.Request) {
	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	sessionID := mux.Vars(r)["id"]
	// Ownership check before handing out lines.
	if _, found := h.engine.SessionForRecovery(sessionID, playerID); !found {
		h.writeError(w, combat.ErrSessionNotFound)
		return
	}

	var lines []string
	if h.sink != nil {
		lines = h.sink.Drain(sessionID)
	}
	if lines == nil {
		lines = []string{}
	}
	h.writeJSON(w, http.StatusOK, dialogueResponse{Lines: lines})
}

// playerID extracts the player identity header, writing a 400 when absent.
func (h *Handler) playerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(playerHeader)
	if id == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing " + playerHeader + " header"})
		return "", false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, combat.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, combat.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, combat.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, combat.ErrSessionTerminated):
		status = http.StatusGone
	case errors.Is(err, combat.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
		h.logger.Error("unhandled combat error", zap.Error(err))
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("writing response", zap.Error(err))
	}
}
