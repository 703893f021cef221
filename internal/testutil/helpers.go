package testutil

import (
	"database/sql"
	"testing"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/divstrat/dividend-reinvest-backend/internal/fxrate"
	"github.com/divstrat/dividend-reinvest-backend/internal/marketdata"
	"github.com/divstrat/dividend-reinvest-backend/internal/repository"
	"github.com/divstrat/dividend-reinvest-backend/internal/service"
	"github.com/divstrat/dividend-reinvest-backend/internal/simulation"
	"github.com/divstrat/dividend-reinvest-backend/internal/yahoo"
)

// Retry settings for tests: two attempts with a negligible backoff so retry
// paths are exercised without slowing the suite down.
const (
	TestMaxAttempts = 2
	TestBackoff     = time.Millisecond
)

// NewTestSimulator builds a Simulator on top of the given quote client with
// fast retry settings and a small prefetch window.
func NewTestSimulator(t *testing.T, client yahoo.Client) *simulation.Simulator {
	t.Helper()

	fxCache := cache.New(time.Hour, time.Hour)
	fxProvider := fxrate.NewProvider(client, fxCache, TestMaxAttempts, TestBackoff)
	priceService := marketdata.NewPriceService(client, TestMaxAttempts, TestBackoff, 7)
	dividendService := marketdata.NewDividendService(client, TestMaxAttempts, TestBackoff)

	return simulation.NewSimulator(priceService, dividendService, fxProvider, 2)
}

// NewTestSimulationService builds a SimulationService backed by the given
// database and quote client, mirroring the production wiring.
func NewTestSimulationService(t *testing.T, db *sql.DB, client yahoo.Client) *service.SimulationService {
	t.Helper()

	runRepo := repository.NewSimulationRunRepository(db)
	return service.NewSimulationService(NewTestSimulator(t, client), runRepo)
}

// NewTestSystemService builds a SystemService backed by the given database.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}
