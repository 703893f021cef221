// Package simulation implements the dividend cross-reinvestment engine:
// replay the source instrument's dividend schedule from a start date,
// convert each payout into the target instrument's currency, buy fractional
// shares at the close of the first tradable session on or after the ex-date,
// and value the accumulated position against the current price.
package simulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/divstrat/dividend-reinvest-backend/internal/apperrors"
	"github.com/divstrat/dividend-reinvest-backend/internal/currency"
	"github.com/divstrat/dividend-reinvest-backend/internal/model"
)

// PriceSource looks up tradable prices of an instrument.
type PriceSource interface {
	// PriceOnOrAfter returns the close of the first tradable session on or
	// after date, with the actual session date. Fails with
	// apperrors.ErrNoTradeData when no session exists within the source's
	// forward window.
	PriceOnOrAfter(ctx context.Context, symbol string, date time.Time) (model.Quote, error)

	// LatestPrice returns the most recent available close.
	LatestPrice(ctx context.Context, symbol string) (model.Quote, error)
}

// DividendSource retrieves dividend events of an instrument.
type DividendSource interface {
	// EventsSince returns events with ex-date on/after start, ascending.
	// Empty means no payouts since start; apperrors.ErrNoDividendHistory
	// means the instrument has never paid one.
	EventsSince(ctx context.Context, symbol string, start time.Time) ([]model.DividendEvent, error)
}

// RateSource resolves currency conversion rates. Lookups never fail; the
// source degrades to a fallback constant internally.
type RateSource interface {
	Rate(ctx context.Context, date time.Time, from, to string) decimal.Decimal
}

// Simulator runs dividend cross-reinvestment simulations. Per-event lookups
// are I/O bound and independent, so they are prefetched concurrently, but
// results are always applied in ex-date order before any cumulative field is
// computed.
type Simulator struct {
	prices    PriceSource
	dividends DividendSource
	rates     RateSource
	prefetch  int
}

// NewSimulator creates a simulator over the given data sources. prefetch
// bounds how many per-event lookups run concurrently; values below 1 mean
// strictly sequential processing.
func NewSimulator(prices PriceSource, dividends DividendSource, rates RateSource, prefetch int) *Simulator {
	if prefetch < 1 {
		prefetch = 1
	}
	return &Simulator{
		prices:    prices,
		dividends: dividends,
		rates:     rates,
		prefetch:  prefetch,
	}
}

// lookup holds the prefetched external data of one dividend event.
type lookup struct {
	rate  decimal.Decimal
	quote model.Quote
	err   error
}

// Simulate replays the source instrument's dividend schedule from the
// request's start date and reinvests every payout into the target
// instrument.
//
// Events that cannot be priced are skipped and recorded, never aborting the
// batch. The call as a whole fails only for invalid input, an instrument
// that has never paid a dividend, or an unavailable current price for the
// final valuation. A request whose source paid nothing since the start date
// succeeds with empty transactions and zeroed aggregates.
func (s *Simulator) Simulate(ctx context.Context, req model.SimulationRequest) (*model.SimulationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sourceCcy, _ := currency.Resolve(req.SourceSymbol)
	targetCcy, displaySymbol := currency.Resolve(req.TargetSymbol)

	events, err := s.dividends.EventsSince(ctx, req.SourceSymbol, req.StartDate)
	if err != nil {
		return nil, err
	}

	result := &model.SimulationResult{
		SourceSymbol:   req.SourceSymbol,
		TargetSymbol:   req.TargetSymbol,
		StartDate:      req.StartDate,
		SharesHeld:     req.SharesHeld,
		SourceCurrency: sourceCcy,
		TargetCurrency: targetCcy,
		CurrencySymbol: displaySymbol,
		Drip:           req.SourceSymbol == req.TargetSymbol,
		Transactions:   []model.Transaction{},
		Skipped:        []model.SkippedEvent{},
		TotalInvested:  decimal.Zero,
		AverageCost:    decimal.Zero,
		CurrentPrice:   decimal.Zero,
		CurrentValue:   decimal.Zero,
		ProfitLoss:     decimal.Zero,
		ProfitLossPct:  decimal.Zero,
	}

	if len(events) == 0 {
		// Legitimate no-activity outcome, not an error.
		return result, nil
	}

	lookups := s.gather(ctx, req, events, sourceCcy, targetCcy)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.fold(req, events, lookups, result)

	if len(result.Transactions) == 0 {
		// Every event was skipped: a data-availability outcome the caller
		// surfaces via the skipped list, not a failure. No position exists,
		// so no current-price valuation is attempted.
		return result, nil
	}

	latest, err := s.prices.LatestPrice(ctx, req.TargetSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCurrentPriceUnavailable, err)
	}
	result.CurrentPrice = latest.Price

	totalShares := decimal.NewFromFloat(result.TotalShares)
	result.CurrentValue = totalShares.Mul(result.CurrentPrice)
	if result.TotalShares > 0 {
		result.AverageCost = result.TotalInvested.Div(totalShares)
	}
	result.ProfitLoss = result.CurrentValue.Sub(result.TotalInvested)
	if result.TotalInvested.IsPositive() {
		result.ProfitLossPct = result.ProfitLoss.Div(result.TotalInvested).Mul(decimal.NewFromInt(100))
	}

	return result, nil
}

// gather prefetches the exchange rate and purchase price of every event,
// bounded by the configured concurrency. Per-event failures are captured in
// the returned slice rather than aborting the group; the slice is indexed
// like events, so fold can apply results strictly in ex-date order.
func (s *Simulator) gather(ctx context.Context, req model.SimulationRequest, events []model.DividendEvent, sourceCcy, targetCcy string) []lookup {
	lookups := make([]lookup, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.prefetch)
	for i, ev := range events {
		i, ev := i, ev
		g.Go(func() error {
			lu := lookup{rate: decimal.NewFromInt(1)}
			if sourceCcy != targetCcy {
				lu.rate = s.rates.Rate(gctx, ev.ExDate, sourceCcy, targetCcy)
			}
			lu.quote, lu.err = s.prices.PriceOnOrAfter(gctx, req.TargetSymbol, ev.ExDate)
			lookups[i] = lu
			return nil
		})
	}
	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	return lookups
}

// fold applies the prefetched lookups in ex-date order, accumulating the
// transaction list and the running totals. Events without usable trade data
// are recorded as skipped.
func (s *Simulator) fold(req model.SimulationRequest, events []model.DividendEvent, lookups []lookup, result *model.SimulationResult) {
	shares := decimal.NewFromInt(req.SharesHeld)
	cumulative := 0.0

	for i, ev := range events {
		lu := lookups[i]
		if lu.err != nil {
			result.Skipped = append(result.Skipped, model.SkippedEvent{
				ExDate: ev.ExDate,
				Reason: lu.err.Error(),
			})
			continue
		}
		if !lu.quote.Price.IsPositive() {
			result.Skipped = append(result.Skipped, model.SkippedEvent{
				ExDate: ev.ExDate,
				Reason: fmt.Sprintf("%s: non-positive close for %s on %s",
					apperrors.ErrNoTradeData, req.TargetSymbol, lu.quote.Date.Format("2006-01-02")),
			})
			continue
		}

		gross := ev.AmountPerShare.Mul(shares)
		invested := gross.Mul(lu.rate)
		bought, _ := invested.Div(lu.quote.Price).Float64()
		cumulative += bought

		result.Transactions = append(result.Transactions, model.Transaction{
			ExDate:           ev.ExDate,
			TradeDate:        lu.quote.Date,
			DividendPerShare: ev.AmountPerShare,
			GrossDividend:    gross,
			ExchangeRate:     lu.rate,
			InvestedAmount:   invested,
			PurchasePrice:    lu.quote.Price,
			SharesPurchased:  bought,
			CumulativeShares: cumulative,
		})
		result.TotalInvested = result.TotalInvested.Add(invested)
	}

	result.TotalShares = cumulative
}

// validateRequest enforces the input contract: non-empty symbols, positive
// share count, start date not in the future.
func validateRequest(req model.SimulationRequest) error {
	if strings.TrimSpace(req.SourceSymbol) == "" {
		return fmt.Errorf("%w: source", apperrors.ErrMissingSymbol)
	}
	if strings.TrimSpace(req.TargetSymbol) == "" {
		return fmt.Errorf("%w: target", apperrors.ErrMissingSymbol)
	}
	if req.SharesHeld <= 0 {
		return fmt.Errorf("%w: got %d", apperrors.ErrNonPositiveShares, req.SharesHeld)
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.StartDate.After(today) {
		return fmt.Errorf("%w: %s", apperrors.ErrFutureStartDate, req.StartDate.Format("2006-01-02"))
	}
	return nil
}
