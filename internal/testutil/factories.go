package testutil

import (
	"fmt"
	"time"

	"github.com/divstrat/dividend-reinvest-backend/internal/apperrors"
	"github.com/divstrat/dividend-reinvest-backend/internal/yahoo"
)

// DayClose describes a single trading session used to build mock chart
// responses. A nil-close session can be produced with Missing set, matching
// how Yahoo reports holidays.
type DayClose struct {
	Date    time.Time
	Close   float64
	Missing bool
}

// Day is a shorthand for constructing a DayClose from a date string and a
// closing price.
//
// Example usage:
//
//	testutil.ChartResponse("SCHD", "USD",
//	    testutil.Day("2024-03-20", 77.10),
//	    testutil.Day("2024-03-21", 77.45),
//	)
func Day(date string, close float64) DayClose {
	return DayClose{Date: MustDate(date), Close: close}
}

// MissingDay constructs a session for which Yahoo reports a null close.
func MissingDay(date string) DayClose {
	return DayClose{Date: MustDate(date), Missing: true}
}

// MustDate parses a YYYY-MM-DD string, panicking on malformed input. Intended
// for fixture construction only.
func MustDate(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(fmt.Sprintf("bad fixture date %q: %v", date, err))
	}
	return t
}

// ChartResponse creates a mock Yahoo chart response covering the given
// sessions, in the order provided. Open, high and low mirror the close since
// only closing prices matter to the simulator.
func ChartResponse(symbol, currency string, days ...DayClose) yahoo.Response {
	timestamps := make([]int64, len(days))
	opens := make([]*float64, len(days))
	highs := make([]*float64, len(days))
	lows := make([]*float64, len(days))
	closes := make([]*float64, len(days))
	volumes := make([]*int64, len(days))

	for i, d := range days {
		timestamps[i] = d.Date.Unix()
		if d.Missing {
			continue
		}
		c := d.Close
		v := int64(1000000 + i*10000)
		opens[i] = &c
		highs[i] = &c
		lows[i] = &c
		closes[i] = &c
		volumes[i] = &v
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:       symbol,
						Currency:     currency,
						ExchangeName: "NMS",
					},
					Timestamp: timestamps,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{
							{
								Open:   opens,
								High:   highs,
								Low:    lows,
								Close:  closes,
								Volume: volumes,
							},
						},
					},
				},
			},
		},
	}
}

// DividendEvent describes one dividend used to build mock dividend responses.
type DividendEvent struct {
	Date   time.Time
	Amount float64
}

// Dividend is a shorthand for constructing a DividendEvent from a date
// string and a per-share amount.
func Dividend(date string, amount float64) DividendEvent {
	return DividendEvent{Date: MustDate(date), Amount: amount}
}

// DividendsResponse creates a mock Yahoo dividend history response for the
// given events. An empty event list models an instrument that has never paid
// a distribution.
func DividendsResponse(symbol, currency string, events ...DividendEvent) yahoo.Response {
	dividends := make(map[string]yahoo.DividendEntry, len(events))
	for _, e := range events {
		ts := e.Date.Unix()
		dividends[fmt.Sprintf("%d", ts)] = yahoo.DividendEntry{
			Amount: e.Amount,
			Date:   ts,
		}
	}

	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:   symbol,
						Currency: currency,
					},
					Events: yahoo.Events{Dividends: dividends},
				},
			},
		},
	}
}

// NotFoundError creates the error the Yahoo client produces for an unknown
// symbol, suitable for MockYahooClient.WithError.
func NotFoundError(symbol string) error {
	return fmt.Errorf("%w: %s (Not Found)", apperrors.ErrSymbolNotFound, symbol)
}
