package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/divstrat/dividend-reinvest-backend/internal/apperrors"
	"github.com/divstrat/dividend-reinvest-backend/internal/model"
)

// SimulationRunRepository persists completed simulation runs. The full
// result is stored as JSON next to the headline aggregates so that listings
// never need to deserialize whole transaction tables.
type SimulationRunRepository struct {
	db *sql.DB
}

func NewSimulationRunRepository(db *sql.DB) *SimulationRunRepository {
	return &SimulationRunRepository{db: db}
}

// Save stores a completed run.
func (r *SimulationRunRepository) Save(run model.SimulationRun) error {
	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to encode simulation result: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO simulation_run
			(id, source_symbol, target_symbol, start_date, shares_held,
			 total_invested, total_shares, profit_loss_pct, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Result.SourceSymbol,
		run.Result.TargetSymbol,
		run.Result.StartDate.Format("2006-01-02"),
		run.Result.SharesHeld,
		run.Result.TotalInvested.String(),
		run.Result.TotalShares,
		run.Result.ProfitLossPct.String(),
		string(resultJSON),
		run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert simulation run: %w", err)
	}

	return nil
}

// List returns stored run summaries, newest first.
func (r *SimulationRunRepository) List() ([]model.SimulationRunSummary, error) {
	rows, err := r.db.Query(`
		SELECT id, source_symbol, target_symbol, start_date, shares_held,
		       total_invested, total_shares, profit_loss_pct, created_at
		FROM simulation_run
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation runs: %w", err)
	}
	defer rows.Close()

	summaries := []model.SimulationRunSummary{}
	for rows.Next() {
		var s model.SimulationRunSummary
		var startDateStr, totalInvestedStr, plPctStr, createdAtStr string

		err := rows.Scan(
			&s.ID,
			&s.SourceSymbol,
			&s.TargetSymbol,
			&startDateStr,
			&s.SharesHeld,
			&totalInvestedStr,
			&s.TotalShares,
			&plPctStr,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation run: %w", err)
		}

		s.StartDate, err = ParseTime(startDateStr)
		if err != nil {
			return nil, err
		}
		s.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}
		s.TotalInvested, err = decimal.NewFromString(totalInvestedStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total invested: %w", err)
		}
		s.ProfitLossPct, err = decimal.NewFromString(plPctStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse profit/loss pct: %w", err)
		}

		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating simulation runs: %w", err)
	}

	return summaries, nil
}

// Get returns a stored run with its full result.
func (r *SimulationRunRepository) Get(id string) (model.SimulationRun, error) {
	var run model.SimulationRun
	var resultJSON, createdAtStr string

	err := r.db.QueryRow(`
		SELECT id, result_json, created_at
		FROM simulation_run
		WHERE id = ?`, id).Scan(&run.ID, &resultJSON, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SimulationRun{}, fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, id)
	}
	if err != nil {
		return model.SimulationRun{}, fmt.Errorf("failed to query simulation run: %w", err)
	}

	run.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.SimulationRun{}, err
	}
	if err := json.Unmarshal([]byte(resultJSON), &run.Result); err != nil {
		return model.SimulationRun{}, fmt.Errorf("failed to decode simulation result: %w", err)
	}

	return run, nil
}
