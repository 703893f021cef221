package request

// CreateSimulationRequest represents the request body for running a new
// dividend cross-reinvestment simulation.
type CreateSimulationRequest struct {
	SourceSymbol string `json:"sourceSymbol"`
	TargetSymbol string `json:"targetSymbol"`
	StartDate    string `json:"startDate"` // YYYY-MM-DD
	SharesHeld   int64  `json:"sharesHeld"`
}
