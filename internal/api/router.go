package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/divstrat/dividend-reinvest-backend/internal/api/handlers"
	custommiddleware "github.com/divstrat/dividend-reinvest-backend/internal/api/middleware"
	"github.com/divstrat/dividend-reinvest-backend/internal/config"
	"github.com/divstrat/dividend-reinvest-backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(systemService *service.SystemService, simulationService *service.SimulationService, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/simulation", func(r chi.Router) {
			simulationHandler := handlers.NewSimulationHandler(simulationService)
			r.Post("/", simulationHandler.CreateSimulation)
			r.Get("/", simulationHandler.ListSimulations)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", simulationHandler.GetSimulation)
				r.Get("/csv", simulationHandler.ExportSimulationCSV)
			})
		})
	})

	return r
}
