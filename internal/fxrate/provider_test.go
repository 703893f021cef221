package fxrate

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/divstrat/dividend-reinvest-backend/internal/yahoo"
)

// fakeQuoteClient serves canned chart responses keyed by ticker and counts
// calls. Tickers without a response fail with a transient-style error.
type fakeQuoteClient struct {
	mu        sync.Mutex
	responses map[string]yahoo.Response
	calls     int
}

func (f *fakeQuoteClient) QueryChartByDateRange(_ context.Context, symbol string, _, _ time.Time) (yahoo.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	resp, ok := f.responses[symbol]
	if !ok {
		return yahoo.Response{}, fmt.Errorf("yahoo returned status 500 for %s", symbol)
	}
	return resp, nil
}

func (f *fakeQuoteClient) QueryLatest(context.Context, string) (yahoo.Response, error) {
	return yahoo.Response{}, fmt.Errorf("unexpected latest query")
}

func (f *fakeQuoteClient) QueryDividends(context.Context, string) (yahoo.Response, error) {
	return yahoo.Response{}, fmt.Errorf("unexpected dividends query")
}

func (f *fakeQuoteClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// rateChart builds a chart response with one close per day, index-aligned.
func rateChart(days []time.Time, closes []float64) yahoo.Response {
	timestamps := make([]int64, len(days))
	closePtrs := make([]*float64, len(days))
	for i := range days {
		timestamps[i] = days[i].Unix()
		c := closes[i]
		closePtrs[i] = &c
	}
	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Timestamp:  timestamps,
					Indicators: yahoo.IndicatorsContainer{Quote: []yahoo.Quote{{Close: closePtrs}}},
				},
			},
		},
	}
}

func newTestProvider(client yahoo.Client) *Provider {
	return NewProvider(client, cache.New(time.Hour, time.Hour), 2, time.Millisecond)
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	asOf := date("2024-03-15")

	t.Run("same currency is exactly one with no lookups", func(t *testing.T) {
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "USD", "USD")

		if !rate.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Expected rate 1, got %s", rate)
		}
		if client.callCount() != 0 {
			t.Errorf("Expected no quote lookups, got %d", client.callCount())
		}
	})

	t.Run("fetches quoted rate and caches it", func(t *testing.T) {
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{
			"USDKRW=X": rateChart([]time.Time{asOf}, []float64{1320.5}),
		}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "USD", "KRW")
		if !rate.Equal(decimal.NewFromFloat(1320.5)) {
			t.Errorf("Expected rate 1320.5, got %s", rate)
		}

		before := client.callCount()
		again := p.Rate(ctx, asOf, "USD", "KRW")
		if !again.Equal(rate) {
			t.Errorf("Expected cached rate %s, got %s", rate, again)
		}
		if client.callCount() != before {
			t.Errorf("Expected cached lookup, got %d extra calls", client.callCount()-before)
		}
	})

	t.Run("falls through ticker aliases", func(t *testing.T) {
		// USDKRW=X is not configured and fails; the KRW=X alias serves the rate.
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{
			"KRW=X": rateChart([]time.Time{asOf}, []float64{1310.0}),
		}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "USD", "KRW")
		if !rate.Equal(decimal.NewFromFloat(1310.0)) {
			t.Errorf("Expected rate 1310 from alias ticker, got %s", rate)
		}
	})

	t.Run("picks the close nearest the requested date", func(t *testing.T) {
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{
			"USDKRW=X": rateChart(
				[]time.Time{date("2024-03-18"), date("2024-03-19")},
				[]float64{1300.0, 1400.0},
			),
		}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "USD", "KRW")
		if !rate.Equal(decimal.NewFromFloat(1300.0)) {
			t.Errorf("Expected nearest-day close 1300, got %s", rate)
		}
	})

	t.Run("rejects quotes outside the sanity band", func(t *testing.T) {
		// 90 KRW per USD is implausible; the fallback constant must win.
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{
			"USDKRW=X": rateChart([]time.Time{asOf}, []float64{90.0}),
			"KRW=X":    rateChart([]time.Time{asOf}, []float64{90.0}),
		}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "USD", "KRW")
		if !rate.Equal(decimal.NewFromFloat(1350.0)) {
			t.Errorf("Expected fallback rate 1350, got %s", rate)
		}
	})

	t.Run("uses fallback constant when quotes are unavailable", func(t *testing.T) {
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "USD", "JPY")
		if !rate.Equal(decimal.NewFromFloat(150.0)) {
			t.Errorf("Expected fallback rate 150, got %s", rate)
		}
	})

	t.Run("inverse pair falls back to the reciprocal", func(t *testing.T) {
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "KRW", "USD")
		expected := decimal.NewFromInt(1).Div(decimal.NewFromFloat(1350.0))
		if !rate.Equal(expected) {
			t.Errorf("Expected reciprocal fallback %s, got %s", expected, rate)
		}
	})

	t.Run("unknown pair falls back to parity", func(t *testing.T) {
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "SEK", "NOK")
		if !rate.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Expected parity fallback, got %s", rate)
		}
	})

	t.Run("unlisted pair tries the conventional ticker", func(t *testing.T) {
		client := &fakeQuoteClient{responses: map[string]yahoo.Response{
			"SEKNOK=X": rateChart([]time.Time{asOf}, []float64{0.95}),
		}}
		p := newTestProvider(client)

		rate := p.Rate(ctx, asOf, "SEK", "NOK")
		if !rate.Equal(decimal.NewFromFloat(0.95)) {
			t.Errorf("Expected quoted rate 0.95, got %s", rate)
		}
	})
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	asOf := date("2024-03-15")

	client := &fakeQuoteClient{responses: map[string]yahoo.Response{
		"USDKRW=X": rateChart([]time.Time{asOf}, []float64{1320.0}),
	}}
	p := newTestProvider(client)

	p.Rate(ctx, asOf, "USD", "KRW")
	before := client.callCount()

	p.Flush()

	p.Rate(ctx, asOf, "USD", "KRW")
	if client.callCount() == before {
		t.Error("Expected a fresh lookup after flush")
	}
}
