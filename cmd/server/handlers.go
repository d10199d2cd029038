package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"trade-journal-go/internal/cache"
	"trade-journal-go/internal/calendar"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/stats"
	"trade-journal-go/internal/store"

	"go.uber.org/zap"
)

// APIHandler holds dependencies for the read-only API endpoints.
type APIHandler struct {
	log      *zap.Logger
	store    *store.Store
	calendar *calendar.Service
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, st *store.Store, cal *calendar.Service) *APIHandler {
	return &APIHandler{log: log, store: st, calendar: cal}
}

func (h *APIHandler) userAccount(r *http.Request) (string, string) {
	user := r.URL.Query().Get("user")
	if user == "" {
		user = "local"
	}
	return user, r.URL.Query().Get("account")
}

// TradesHandler returns the user's trades, newest entries last.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	user, account := h.userAccount(r)
	trades, err := h.store.TradesByAccount(user, account)
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// StatsHandler returns aggregate statistics over the selected trades.
// Optional from/to query params (YYYY-MM-DD) bound the entry date.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	user, account := h.userAccount(r)
	trades, err := h.store.TradesByAccount(user, account)
	if err != nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	from, to := parseDateBound(r.URL.Query().Get("from"), time.Time{}), parseDateBound(r.URL.Query().Get("to"), maxDate)
	trades = stats.DateRange(trades, from, to)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats.Aggregate(trades))
}

var maxDate = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

func parseDateBound(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return fallback
	}
	return parsed
}

// CalendarResponse wraps calendar events with their payload provenance.
type CalendarResponse struct {
	Events []calendar.Event `json:"events"`
	Source cache.Source     `json:"source"`
	Error  string           `json:"error,omitempty"`
}

// CalendarHandler returns upcoming economic events. When the upstream is down
// and nothing is cached it answers with an empty list and an error field, not
// a failure status, so the UI renders "no data".
func (h *APIHandler) CalendarHandler(w http.ResponseWriter, r *http.Request) {
	events, source, err := h.calendar.Events()

	resp := CalendarResponse{Events: events, Source: source}
	if resp.Events == nil {
		resp.Events = []calendar.Event{}
	}
	if err != nil {
		if !errors.Is(err, models.ErrNoCacheData) {
			h.log.Error("Calendar lookup failed", zap.Error(err))
		}
		resp.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
