package apperrors

import "errors"

// Input errors represent invalid simulation parameters. These are fatal to
// the request, reported immediately and never retried.
var (
	// ErrMissingSymbol indicates an empty instrument identifier.
	ErrMissingSymbol = errors.New("instrument symbol is required")

	// ErrNonPositiveShares indicates a zero or negative share count.
	ErrNonPositiveShares = errors.New("shares held must be positive")

	// ErrFutureStartDate indicates a simulation start date after today.
	ErrFutureStartDate = errors.New("start date cannot be in the future")
)

// Data availability errors represent missing market data. Some are fatal to
// the whole simulation, some only to a single dividend event.
var (
	// ErrSymbolNotFound indicates that the quote source does not know the
	// instrument at all. Non-transient: never retried.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrNoDividendHistory indicates that the source instrument has never
	// paid a distribution. Fatal to the request.
	ErrNoDividendHistory = errors.New("instrument has no dividend history")

	// ErrNoTradeData indicates that no tradable session with price data
	// exists within the forward window of a requested date. Recoverable at
	// event granularity: the affected event is skipped.
	ErrNoTradeData = errors.New("no trade data available")

	// ErrCurrentPriceUnavailable indicates that the latest close of the
	// target instrument could not be retrieved. Fatal to the request since
	// final valuation requires a current price.
	ErrCurrentPriceUnavailable = errors.New("current price unavailable")
)

// Run history errors represent failures of the stored-run layer.
var (
	// ErrRunNotFound indicates that no stored simulation run has the given ID.
	ErrRunNotFound = errors.New("simulation run not found")

	// ErrFailedToSaveRun indicates that a completed run could not be persisted.
	ErrFailedToSaveRun = errors.New("failed to save simulation run")

	// ErrFailedToRetrieveRuns indicates that the run history could not be read.
	ErrFailedToRetrieveRuns = errors.New("failed to retrieve simulation runs")
)
