package validation

import (
	"strings"
	"time"

	"github.com/divstrat/dividend-reinvest-backend/internal/api/request"
	"github.com/divstrat/dividend-reinvest-backend/internal/model"
)

// ValidateCreateSimulation validates a simulation request and converts it to
// the typed form the simulator accepts.
//
// Required fields:
//   - sourceSymbol: Must be non-empty
//   - targetSymbol: Must be non-empty
//   - startDate: Must be in YYYY-MM-DD format and not in the future
//   - sharesHeld: Must be positive
//
// Returns a validation Error with field-specific messages if validation
// fails.
func ValidateCreateSimulation(req request.CreateSimulationRequest) (model.SimulationRequest, error) {
	errors := make(map[string]string)

	source := strings.ToUpper(strings.TrimSpace(req.SourceSymbol))
	if source == "" {
		errors["sourceSymbol"] = "sourceSymbol is required"
	}

	target := strings.ToUpper(strings.TrimSpace(req.TargetSymbol))
	if target == "" {
		errors["targetSymbol"] = "targetSymbol is required"
	}

	var startDate time.Time
	if strings.TrimSpace(req.StartDate) == "" {
		errors["startDate"] = "date is required"
	} else {
		var err error
		startDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			errors["startDate"] = err.Error()
		} else {
			now := time.Now().UTC()
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			if startDate.After(today) {
				errors["startDate"] = "startDate cannot be in the future"
			}
		}
	}

	if req.SharesHeld <= 0 {
		errors["sharesHeld"] = "sharesHeld must be positive"
	}

	if len(errors) > 0 {
		return model.SimulationRequest{}, &Error{Fields: errors}
	}

	return model.SimulationRequest{
		SourceSymbol: source,
		TargetSymbol: target,
		StartDate:    startDate,
		SharesHeld:   req.SharesHeld,
	}, nil
}
