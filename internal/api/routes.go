package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Summary table
	api.HandleFunc("/summaries", handler.GetSummaries).Methods("GET")
	api.HandleFunc("/summaries/refresh", handler.RefreshSummaries).Methods("POST")

	// Instrument universe
	api.HandleFunc("/instruments", handler.GetAllInstruments).Methods("GET")
	api.HandleFunc("/instruments", handler.AddInstrument).Methods("POST")
	api.HandleFunc("/instruments/{symbol}", handler.GetInstrument).Methods("GET")
	api.HandleFunc("/instruments/{symbol}", handler.RemoveInstrument).Methods("DELETE")
	api.HandleFunc("/instruments/{symbol}/series", handler.GetSeries).Methods("GET")

	return r
}
