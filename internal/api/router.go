// Package api exposes the signal engine's operation surface over HTTP:
// health, current features, ask-for-signal, and the signal listing the
// dashboard reads.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bullsignals/internal/engine"
	"bullsignals/internal/model"
)

// Handler serves the public API.
type Handler struct {
	engine *engine.Engine
	store  model.SignalStore
	symbol string
	log    *slog.Logger
}

// NewHandler creates a Handler around the engine and store.
func NewHandler(e *engine.Engine, store model.SignalStore, symbol string, logger *slog.Logger) *Handler {
	return &Handler{engine: e, store: store, symbol: symbol, log: logger}
}

// Router sets up HTTP routes for the API server.
func (h *Handler) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/features-now", h.handleFeaturesNow)
	mux.HandleFunc("/ask", h.handleAsk)
	mux.HandleFunc("/signals", h.handleSignals)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := h.engine.Health(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"symbol":    info.Symbol,
		"timeframe": info.Timeframe,
		"price":     info.Price,
		"threshold": info.Threshold,
		"tp_pct":    info.TPPct,
		"sl_pct":    info.SLPct,
		"ts":        info.TS,
	})
}

func (h *Handler) handleFeaturesNow(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.FeaturesNow(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"features":  res.Features,
		"lastClose": res.LastClose,
	})
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "POST only"})
		return
	}

	var body struct {
		Leverage int `json:"leverage"`
	}
	// An empty body is fine; leverage falls back to the engine default.
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	res, err := h.engine.Ask(r.Context(), body.Leverage)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if res.NoTrade {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"noTrade": true,
			"oracle":  res.Decision,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"id":     res.ID,
		"signal": res.Signal,
		"oracle": res.Decision,
	})
}

func (h *Handler) handleSignals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	open, err := h.store.ListOpen(ctx, h.symbol)
	if err != nil {
		h.writeError(w, err)
		return
	}
	closed, err := h.store.ListClosed(ctx, h.symbol)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"open":   open,
		"closed": closed,
	})
}

// writeError maps the error taxonomy onto HTTP statuses and returns the
// structured payload the original worker's clients expect.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var insufficient *model.InsufficientDataError
	var unavailData *model.DataUnavailableError
	var unavailOracle *model.OracleUnavailableError
	switch {
	case errors.As(err, &insufficient):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &unavailData), errors.As(err, &unavailOracle):
		status = http.StatusBadGateway
	case errors.Is(err, engine.ErrCooldown):
		status = http.StatusTooManyRequests
	}

	h.log.Error("request failed", "error", err, "status", status)
	writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
