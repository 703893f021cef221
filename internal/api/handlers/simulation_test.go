package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/divstrat/dividend-reinvest-backend/internal/model"
	"github.com/divstrat/dividend-reinvest-backend/internal/service"
	"github.com/divstrat/dividend-reinvest-backend/internal/testutil"
)

// reinvestmentFixture configures the mock quote source with a dividend payer
// (SPYD) and a reinvestment target (SCHD), both in USD.
func reinvestmentFixture() *testutil.MockYahooClient {
	return testutil.NewMockYahooClient().
		WithDividends("SPYD", testutil.DividendsResponse("SPYD", "USD",
			testutil.Dividend("2024-03-15", 0.41),
			testutil.Dividend("2024-06-21", 0.45),
		)).
		WithChart("SCHD", testutil.ChartResponse("SCHD", "USD",
			testutil.Day("2024-03-15", 77.10),
			testutil.Day("2024-06-21", 78.00),
		)).
		WithLatest("SCHD", testutil.ChartResponse("SCHD", "USD",
			testutil.Day("2024-08-01", 80.00),
		))
}

func setupSimulationHandler(t *testing.T, client *testutil.MockYahooClient) (*SimulationHandler, *service.SimulationService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ss := testutil.NewTestSimulationService(t, db, client)
	return NewSimulationHandler(ss), ss
}

func postSimulation(t *testing.T, handler *SimulationHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/simulation", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.CreateSimulation(w, req)
	return w
}

func TestSimulationHandler_CreateSimulation(t *testing.T) {
	validBody := `{"sourceSymbol":"SPYD","targetSymbol":"SCHD","startDate":"2024-01-02","sharesHeld":100}`

	t.Run("runs a simulation and stores the run", func(t *testing.T) {
		handler, ss := setupSimulationHandler(t, reinvestmentFixture())

		w := postSimulation(t, handler, validBody)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var run model.SimulationRun
		if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if run.ID == "" {
			t.Error("Expected a run ID to be assigned")
		}
		if len(run.Result.Transactions) != 2 {
			t.Fatalf("Expected 2 transactions, got %d", len(run.Result.Transactions))
		}
		if !run.Result.TotalInvested.Equal(decimal.NewFromInt(86)) {
			t.Errorf("Expected total invested 86, got %s", run.Result.TotalInvested)
		}
		if !run.Result.CurrentPrice.Equal(decimal.NewFromInt(80)) {
			t.Errorf("Expected current price 80, got %s", run.Result.CurrentPrice)
		}
		if len(run.Result.Skipped) != 0 {
			t.Errorf("Expected no skipped events, got %d", len(run.Result.Skipped))
		}

		// The run must be retrievable afterwards
		stored, err := ss.Get(run.ID)
		if err != nil {
			t.Fatalf("Expected stored run, got error: %v", err)
		}
		if stored.Result.SourceSymbol != "SPYD" {
			t.Errorf("Expected stored source symbol SPYD, got %s", stored.Result.SourceSymbol)
		}
	})

	t.Run("rejects a malformed request body", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		w := postSimulation(t, handler, `{not json`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("rejects invalid parameters with field errors", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		w := postSimulation(t, handler, `{"sourceSymbol":"","targetSymbol":"SCHD","startDate":"2024-01-02","sharesHeld":0}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		body := w.Body.String()
		if !strings.Contains(body, "sourceSymbol") || !strings.Contains(body, "sharesHeld") {
			t.Errorf("Expected field errors for sourceSymbol and sharesHeld, got %s", body)
		}
	})

	t.Run("unknown source symbol maps to 404", func(t *testing.T) {
		client := reinvestmentFixture().WithError("SPYD", testutil.NotFoundError("SPYD"))
		handler, _ := setupSimulationHandler(t, client)

		w := postSimulation(t, handler, validBody)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("source without dividend history maps to 404", func(t *testing.T) {
		client := reinvestmentFixture().
			WithDividends("SPYD", testutil.DividendsResponse("SPYD", "USD"))
		handler, _ := setupSimulationHandler(t, client)

		w := postSimulation(t, handler, validBody)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unavailable current price maps to 502", func(t *testing.T) {
		client := testutil.NewMockYahooClient().
			WithDividends("SPYD", testutil.DividendsResponse("SPYD", "USD",
				testutil.Dividend("2024-03-15", 0.41),
			)).
			WithChart("SCHD", testutil.ChartResponse("SCHD", "USD",
				testutil.Day("2024-03-15", 77.10),
			))
		handler, _ := setupSimulationHandler(t, client)

		w := postSimulation(t, handler, validBody)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestSimulationHandler_ListSimulations(t *testing.T) {
	t.Run("returns stored run summaries", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		if w := postSimulation(t, handler, `{"sourceSymbol":"SPYD","targetSymbol":"SCHD","startDate":"2024-01-02","sharesHeld":100}`); w.Code != http.StatusCreated {
			t.Fatalf("Failed to create run: %d %s", w.Code, w.Body.String())
		}

		req := httptest.NewRequest(http.MethodGet, "/api/simulation", nil)
		w := httptest.NewRecorder()
		handler.ListSimulations(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var summaries []model.SimulationRunSummary
		if err := json.NewDecoder(w.Body).Decode(&summaries); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(summaries) != 1 {
			t.Fatalf("Expected 1 summary, got %d", len(summaries))
		}
		if summaries[0].SourceSymbol != "SPYD" {
			t.Errorf("Expected source symbol SPYD, got %s", summaries[0].SourceSymbol)
		}
	})

	t.Run("returns an empty list when nothing is stored", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		req := httptest.NewRequest(http.MethodGet, "/api/simulation", nil)
		w := httptest.NewRecorder()
		handler.ListSimulations(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Errorf("Expected empty JSON array, got %s", body)
		}
	})
}

func TestSimulationHandler_GetSimulation(t *testing.T) {
	t.Run("returns a stored run by ID", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		w := postSimulation(t, handler, `{"sourceSymbol":"SPYD","targetSymbol":"SCHD","startDate":"2024-01-02","sharesHeld":100}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("Failed to create run: %d %s", w.Code, w.Body.String())
		}
		var created model.SimulationRun
		if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
			t.Fatalf("Failed to decode created run: %v", err)
		}

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/simulation/"+created.ID,
			map[string]string{"uuid": created.ID},
		)
		w = httptest.NewRecorder()
		handler.GetSimulation(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var run model.SimulationRun
		if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if run.ID != created.ID {
			t.Errorf("Expected run %s, got %s", created.ID, run.ID)
		}
		if len(run.Result.Transactions) != 2 {
			t.Errorf("Expected 2 transactions, got %d", len(run.Result.Transactions))
		}
	})

	t.Run("unknown run maps to 404", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		id := uuid.NewString()
		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/simulation/"+id,
			map[string]string{"uuid": id},
		)
		w := httptest.NewRecorder()
		handler.GetSimulation(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestSimulationHandler_ExportSimulationCSV(t *testing.T) {
	t.Run("exports the transaction table as a CSV attachment", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		w := postSimulation(t, handler, `{"sourceSymbol":"SPYD","targetSymbol":"SCHD","startDate":"2024-01-02","sharesHeld":100}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("Failed to create run: %d %s", w.Code, w.Body.String())
		}
		var created model.SimulationRun
		if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
			t.Fatalf("Failed to decode created run: %v", err)
		}

		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/simulation/"+created.ID+"/csv",
			map[string]string{"uuid": created.ID},
		)
		w = httptest.NewRecorder()
		handler.ExportSimulationCSV(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("Expected Content-Type text/csv, got %s", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "SPYD_to_SCHD_investment_history.csv") {
			t.Errorf("Unexpected Content-Disposition: %s", cd)
		}

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "ex_date,trade_date") {
			t.Errorf("Unexpected CSV header: %s", lines[0])
		}
	})

	t.Run("unknown run maps to 404", func(t *testing.T) {
		handler, _ := setupSimulationHandler(t, reinvestmentFixture())

		id := uuid.NewString()
		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/simulation/"+id+"/csv",
			map[string]string{"uuid": id},
		)
		w := httptest.NewRecorder()
		handler.ExportSimulationCSV(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
