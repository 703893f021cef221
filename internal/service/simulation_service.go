package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/divstrat/dividend-reinvest-backend/internal/model"
	"github.com/divstrat/dividend-reinvest-backend/internal/repository"
	"github.com/divstrat/dividend-reinvest-backend/internal/simulation"
)

// SimulationService runs reinvestment simulations and maintains the run
// history. The simulator itself is deterministic; run identity and timestamp
// are assigned here, at the moment a result is stored.
type SimulationService struct {
	simulator *simulation.Simulator
	runRepo   *repository.SimulationRunRepository
}

// NewSimulationService creates a new SimulationService with the provided
// simulator and repository dependencies.
func NewSimulationService(
	simulator *simulation.Simulator,
	runRepo *repository.SimulationRunRepository,
) *SimulationService {
	return &SimulationService{
		simulator: simulator,
		runRepo:   runRepo,
	}
}

// Run executes a simulation and persists the completed run.
func (s *SimulationService) Run(ctx context.Context, req model.SimulationRequest) (*model.SimulationRun, error) {
	result, err := s.simulator.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}

	run := model.SimulationRun{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Result:    *result,
	}
	if err := s.runRepo.Save(run); err != nil {
		return nil, err
	}

	return &run, nil
}

// History returns summaries of all stored runs, newest first.
func (s *SimulationService) History() ([]model.SimulationRunSummary, error) {
	return s.runRepo.List()
}

// Get returns a stored run with its full result.
func (s *SimulationService) Get(id string) (model.SimulationRun, error) {
	return s.runRepo.Get(id)
}
