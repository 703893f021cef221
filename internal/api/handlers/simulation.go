package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/divstrat/dividend-reinvest-backend/internal/api/request"
	"github.com/divstrat/dividend-reinvest-backend/internal/api/response"
	"github.com/divstrat/dividend-reinvest-backend/internal/apperrors"
	"github.com/divstrat/dividend-reinvest-backend/internal/export"
	"github.com/divstrat/dividend-reinvest-backend/internal/service"
	"github.com/divstrat/dividend-reinvest-backend/internal/validation"
)

// SimulationHandler handles HTTP requests for simulation endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the simulationService.
type SimulationHandler struct {
	simulationService *service.SimulationService
}

// NewSimulationHandler creates a new SimulationHandler with the provided service dependency.
func NewSimulationHandler(simulationService *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{
		simulationService: simulationService,
	}
}

// CreateSimulation handles POST requests to run a new reinvestment simulation.
// Validates the request body, runs the simulation, stores the run and returns it.
//
// Endpoint: POST /api/simulation
// Request Body: CreateSimulationRequest (sourceSymbol, targetSymbol, startDate, sharesHeld)
// Response: 201 Created with SimulationRun
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if a symbol is unknown or the source has no dividend history
// Error: 502 Bad Gateway if the current price of the target cannot be retrieved
// Error: 500 Internal Server Error if the run cannot be stored
func (h *SimulationHandler) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateSimulationRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	simReq, err := validation.ValidateCreateSimulation(req)
	if err != nil {
		var vErr *validation.Error
		if errors.As(err, &vErr) {
			response.RespondError(w, http.StatusBadRequest, "validation failed", vErr.Fields)
			return
		}
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	run, err := h.simulationService.Run(r.Context(), simReq)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMissingSymbol),
			errors.Is(err, apperrors.ErrNonPositiveShares),
			errors.Is(err, apperrors.ErrFutureStartDate):
			response.RespondError(w, http.StatusBadRequest, "invalid simulation parameters", err.Error())
		case errors.Is(err, apperrors.ErrSymbolNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSymbolNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrNoDividendHistory):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrNoDividendHistory.Error(), err.Error())
		case errors.Is(err, apperrors.ErrCurrentPriceUnavailable):
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrCurrentPriceUnavailable.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToSaveRun.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusCreated, run)
}

// ListSimulations handles GET requests to retrieve summaries of all stored runs.
// Runs are returned newest first.
//
// Endpoint: GET /api/simulation
// Response: 200 OK with array of SimulationRunSummary
// Error: 500 Internal Server Error if retrieval fails
func (h *SimulationHandler) ListSimulations(w http.ResponseWriter, _ *http.Request) {
	runs, err := h.simulationService.History()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveRuns.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, runs)
}

// GetSimulation handles GET requests to retrieve a single stored run with its
// full result, including the transaction table and skipped events.
//
// Endpoint: GET /api/simulation/{uuid}
// Response: 200 OK with SimulationRun
// Error: 400 Bad Request if the run ID is invalid (validated by middleware)
// Error: 404 Not Found if no run has the given ID
// Error: 500 Internal Server Error if retrieval fails
func (h *SimulationHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "uuid")

	run, err := h.simulationService.Get(runID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRunNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrRunNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveRuns.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, run)
}

// ExportSimulationCSV handles GET requests to download a stored run's
// transaction table as a CSV attachment.
//
// Endpoint: GET /api/simulation/{uuid}/csv
// Response: 200 OK with text/csv body and Content-Disposition attachment
// Error: 400 Bad Request if the run ID is invalid (validated by middleware)
// Error: 404 Not Found if no run has the given ID
// Error: 500 Internal Server Error if retrieval or rendering fails
func (h *SimulationHandler) ExportSimulationCSV(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "uuid")

	run, err := h.simulationService.Get(runID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRunNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrRunNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveRuns.Error(), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(&run.Result)))

	// Headers are already written at this point, so failures can only be logged.
	if err := export.WriteTransactionsCSV(w, &run.Result); err != nil {
		log.Printf("Failed to write CSV export for run %s: %v", runID, err)
	}
}
