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

// DividendService retrieves the dividend payment history of instruments from
// the quote source.
type DividendService struct {
	client      yahoo.Client
	maxAttempts int
	backoff     time.Duration
}

// NewDividendService creates a dividend history service.
func NewDividendService(client yahoo.Client, maxAttempts int, backoff time.Duration) *DividendService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DividendService{
		client:      client,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// EventsSince returns the instrument's dividend events with an ex-date on or
// after start, ordered ascending. An instrument that has paid dividends but
// none since start yields an empty slice; an instrument with no distribution
// history at all fails with apperrors.ErrNoDividendHistory, so callers can
// tell "nothing lately" apart from "not a dividend payer".
func (s *DividendService) EventsSince(ctx context.Context, symbol string, start time.Time) ([]model.DividendEvent, error) {
	var resp yahoo.Response
	b := retry.WithMaxRetries(uint64(s.maxAttempts-1), retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		resp, err = s.client.QueryDividends(ctx, symbol)
		if err != nil {
			if errors.Is(err, apperrors.ErrSymbolNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSymbolNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to retrieve dividend history for %s: %w", symbol, err)
	}

	rows, err := yahoo.ParseDividends(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dividend history for %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoDividendHistory, symbol)
	}

	startDay := day(start)
	events := make([]model.DividendEvent, 0, len(rows))
	for _, row := range rows {
		if day(row.Date).Before(startDay) {
			continue
		}
		events = append(events, model.DividendEvent{
			ExDate:         day(row.Date),
			AmountPerShare: decimal.NewFromFloat(row.Amount),
		})
	}

	return events, nil
}
