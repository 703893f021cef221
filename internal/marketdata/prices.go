// Package marketdata implements price lookup and dividend history on top of
// the quote source, including retry policy and date-alignment rules.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/divstrat/dividend-reinvest-backend/internal/apperrors"
	"github.com/divstrat/dividend-reinvest-backend/internal/model"
	"github.com/divstrat/dividend-reinvest-backend/internal/yahoo"
)

// PriceService looks up tradable closing prices for instruments. Transient
// quote-source failures are retried with exponential backoff up to a bounded
// attempt budget; an unknown symbol surfaces immediately without retry.
type PriceService struct {
	client      yahoo.Client
	maxAttempts int
	backoff     time.Duration
	windowDays  int
}

// NewPriceService creates a price service. windowDays bounds how many
// calendar days past a requested date a session may be found.
func NewPriceService(client yahoo.Client, maxAttempts int, backoff time.Duration, windowDays int) *PriceService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if windowDays < 1 {
		windowDays = 5
	}
	return &PriceService{
		client:      client,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		windowDays:  windowDays,
	}
}

// PriceOnOrAfter returns the closing price of the first tradable session on
// or after the given date, along with the actual session date used. Fails
// with apperrors.ErrNoTradeData when no session with a positive close exists
// within the forward window, or once transient retries are exhausted.
func (s *PriceService) PriceOnOrAfter(ctx context.Context, symbol string, date time.Time) (model.Quote, error) {
	start := day(date)
	end := start.AddDate(0, 0, s.windowDays+1)

	resp, err := s.query(ctx, func(ctx context.Context) (yahoo.Response, error) {
		return s.client.QueryChartByDateRange(ctx, symbol, start, end)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSymbolNotFound) {
			return model.Quote{}, err
		}
		return model.Quote{}, fmt.Errorf("%w: %s on/after %s: %v",
			apperrors.ErrNoTradeData, symbol, start.Format("2006-01-02"), err)
	}

	chart, err := yahoo.ParseChart(resp)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %s on/after %s: %v",
			apperrors.ErrNoTradeData, symbol, start.Format("2006-01-02"), err)
	}

	windowEnd := start.AddDate(0, 0, s.windowDays)
	for _, ind := range chart.Indicators {
		d := day(ind.Date)
		if d.Before(start) || d.After(windowEnd) {
			continue
		}
		if ind.PriceClose <= 0 {
			continue
		}
		return model.Quote{
			Date:  d,
			Price: decimal.NewFromFloat(ind.PriceClose),
		}, nil
	}

	return model.Quote{}, fmt.Errorf("%w: no session for %s within %d days of %s",
		apperrors.ErrNoTradeData, symbol, s.windowDays, start.Format("2006-01-02"))
}

// LatestPrice returns the most recent available close of an instrument.
// Fails with apperrors.ErrNoTradeData when no recent session can be
// retrieved.
func (s *PriceService) LatestPrice(ctx context.Context, symbol string) (model.Quote, error) {
	resp, err := s.query(ctx, func(ctx context.Context) (yahoo.Response, error) {
		return s.client.QueryLatest(ctx, symbol)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSymbolNotFound) {
			return model.Quote{}, err
		}
		return model.Quote{}, fmt.Errorf("%w: latest close for %s: %v", apperrors.ErrNoTradeData, symbol, err)
	}

	chart, err := yahoo.ParseChart(resp)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: latest close for %s: %v", apperrors.ErrNoTradeData, symbol, err)
	}

	for i := len(chart.Indicators) - 1; i >= 0; i-- {
		if ind := chart.Indicators[i]; ind.PriceClose > 0 {
			return model.Quote{
				Date:  day(ind.Date),
				Price: decimal.NewFromFloat(ind.PriceClose),
			}, nil
		}
	}

	return model.Quote{}, fmt.Errorf("%w: no recent session for %s", apperrors.ErrNoTradeData, symbol)
}

// query runs a quote-source call under the retry policy. Only transient
// failures are retried; an unknown symbol aborts immediately.
func (s *PriceService) query(ctx context.Context, fetch func(context.Context) (yahoo.Response, error)) (yahoo.Response, error) {
	var resp yahoo.Response
	b := retry.WithMaxRetries(uint64(s.maxAttempts-1), retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		resp, err = fetch(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrSymbolNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	return resp, err
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
