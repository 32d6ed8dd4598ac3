package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/ivpulse/iv-scanner/internal/cache"
	"github.com/ivpulse/iv-scanner/internal/database"
	"github.com/ivpulse/iv-scanner/internal/kafka"
	"github.com/ivpulse/iv-scanner/internal/models"
	"github.com/ivpulse/iv-scanner/internal/scan"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db       *database.DB
	producer *kafka.Producer
	scanner  *scan.Scanner
	cache    *cache.SummaryCache
}

// NewHandler creates a new Handler. producer and cache may be nil.
func NewHandler(db *database.DB, producer *kafka.Producer, scanner *scan.Scanner, summaryCache *cache.SummaryCache) *Handler {
	return &Handler{
		db:       db,
		producer: producer,
		scanner:  scanner,
		cache:    summaryCache,
	}
}

// GetSummaries handles GET /api/v1/summaries. It serves the cached scan
// result when fresh and recomputes otherwise; instruments without usable IV
// history are absent from the rows, and unavailable metrics are JSON null.
func (h *Handler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if result, err := h.cache.Get(r.Context()); err == nil {
			respondJSON(w, http.StatusOK, result)
			return
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Msg("summary cache read failed, recomputing")
		}
	}

	result, err := h.scanner.Run(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), result); err != nil {
			log.Warn().Err(err).Msg("summary cache write failed")
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// RefreshSummaries handles POST /api/v1/summaries/refresh: recompute now and
// replace the cached result
func (h *Handler) RefreshSummaries(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.Run(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), result); err != nil {
			log.Warn().Err(err).Msg("summary cache write failed")
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// GetAllInstruments handles GET /api/v1/instruments
func (h *Handler) GetAllInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.db.GetAllInstruments()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, instruments)
}

// GetInstrument handles GET /api/v1/instruments/{symbol}
func (h *Handler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	inst, err := h.db.GetInstrument(symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, inst)
}

// AddInstrument handles POST /api/v1/instruments
func (h *Handler) AddInstrument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	inst := &models.Instrument{
		Symbol:  req.Symbol,
		Name:    req.Name,
		Enabled: true,
	}
	if err := h.db.UpsertInstrument(inst); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishInstrumentAdded(r.Context(), inst); err != nil {
			log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("failed to publish instrument added event")
		}
	}

	respondJSON(w, http.StatusCreated, inst)
}

// RemoveInstrument handles DELETE /api/v1/instruments/{symbol}
func (h *Handler) RemoveInstrument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	if err := h.db.DeleteInstrument(symbol); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.db.DeleteBarsBySymbol(symbol); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishInstrumentRemoved(r.Context(), symbol); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish instrument removed event")
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSeries handles GET /api/v1/instruments/{symbol}/series, returning the
// trailing bar series for charting
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	bars, err := h.db.GetSeries(symbol, 365)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(bars) == 0 {
		http.Error(w, "no series data for "+symbol, http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, bars)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
