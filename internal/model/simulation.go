package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DividendEvent represents a single historical dividend payment of the source
// instrument: the ex-dividend date and the per-share amount in the source
// instrument's trading currency. Events are immutable and ordered ascending
// by ex-date.
type DividendEvent struct {
	ExDate         time.Time       `json:"exDate"`
	AmountPerShare decimal.Decimal `json:"amountPerShare"`
}

// Quote is a single closing price of an instrument on a concrete trading day.
type Quote struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Transaction is one reinvestment purchase produced from a successfully
// processed DividendEvent. Monetary fields are fixed-precision decimals;
// share quantities are fractional and stay float64.
type Transaction struct {
	ExDate           time.Time       `json:"exDate"`            // ex-dividend date of the source event
	TradeDate        time.Time       `json:"tradeDate"`         // first tradable session on/after ExDate
	DividendPerShare decimal.Decimal `json:"dividendPerShare"`  // source currency, per share
	GrossDividend    decimal.Decimal `json:"grossDividend"`     // DividendPerShare * shares held, source currency
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`      // source -> target, exactly 1 for same currency
	InvestedAmount   decimal.Decimal `json:"investedAmount"`    // GrossDividend * ExchangeRate, target currency
	PurchasePrice    decimal.Decimal `json:"purchasePrice"`     // target instrument close on TradeDate
	SharesPurchased  float64         `json:"sharesPurchased"`   // InvestedAmount / PurchasePrice
	CumulativeShares float64         `json:"cumulativeShares"`  // running sum up to and including this record
}

// SkippedEvent records a dividend event that could not be turned into a
// Transaction, with a human-readable reason. Skipped events never abort a
// simulation.
type SkippedEvent struct {
	ExDate time.Time `json:"exDate"`
	Reason string    `json:"reason"`
}

// SimulationRequest is the validated input of one simulation: hold SharesHeld
// shares of SourceSymbol from StartDate and reinvest every dividend into
// TargetSymbol.
type SimulationRequest struct {
	SourceSymbol string    `json:"sourceSymbol"`
	TargetSymbol string    `json:"targetSymbol"`
	StartDate    time.Time `json:"startDate"`
	SharesHeld   int64     `json:"sharesHeld"`
}

// SimulationResult is the complete outcome of one simulation run. It is
// deterministic for a given request against a stable data source and holds no
// references back to the sources that produced it.
type SimulationResult struct {
	SourceSymbol   string    `json:"sourceSymbol"`
	TargetSymbol   string    `json:"targetSymbol"`
	StartDate      time.Time `json:"startDate"`
	SharesHeld     int64     `json:"sharesHeld"`
	SourceCurrency string    `json:"sourceCurrency"`
	TargetCurrency string    `json:"targetCurrency"`
	CurrencySymbol string    `json:"currencySymbol"` // display symbol of the target currency
	Drip           bool      `json:"drip"`           // true when source and target are the same instrument

	Transactions []Transaction  `json:"transactions"`
	Skipped      []SkippedEvent `json:"skipped"`

	TotalInvested decimal.Decimal `json:"totalInvested"` // sum of InvestedAmount, target currency
	TotalShares   float64         `json:"totalShares"`   // last CumulativeShares, 0 if no transactions
	AverageCost   decimal.Decimal `json:"averageCost"`   // TotalInvested / TotalShares, 0 if no shares
	CurrentPrice  decimal.Decimal `json:"currentPrice"`  // latest available close of the target
	CurrentValue  decimal.Decimal `json:"currentValue"`  // TotalShares * CurrentPrice
	ProfitLoss    decimal.Decimal `json:"profitLoss"`    // CurrentValue - TotalInvested
	ProfitLossPct decimal.Decimal `json:"profitLossPct"` // ProfitLoss / TotalInvested * 100, 0 if nothing invested
}

// SimulationRun wraps a SimulationResult with the identity and timestamp it
// was stored under. The result itself stays free of run metadata so that
// identical requests produce identical results.
type SimulationRun struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	Result    SimulationResult `json:"result"`
}

// SimulationRunSummary is the headline view of a stored run, used for run
// history listings.
type SimulationRunSummary struct {
	ID            string          `json:"id"`
	SourceSymbol  string          `json:"sourceSymbol"`
	TargetSymbol  string          `json:"targetSymbol"`
	StartDate     time.Time       `json:"startDate"`
	SharesHeld    int64           `json:"sharesHeld"`
	TotalInvested decimal.Decimal `json:"totalInvested"`
	TotalShares   float64         `json:"totalShares"`
	ProfitLossPct decimal.Decimal `json:"profitLossPct"`
	CreatedAt     time.Time       `json:"createdAt"`
}
