// Package yahoo provides a client for the Yahoo Finance chart API, the quote
// source behind price lookups, dividend history and exchange-rate quotes.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/divstrat/dividend-reinvest-backend/internal/apperrors"
)

const baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client is the quote-source capability consumed by the market-data and
// exchange-rate layers. Implementations must distinguish an unknown symbol
// (wrapping apperrors.ErrSymbolNotFound) from transient failures, which
// callers are free to retry.
type Client interface {
	// QueryLatest fetches the most recent five trading days for a symbol.
	QueryLatest(ctx context.Context, symbol string) (Response, error)

	// QueryChartByDateRange fetches daily price data for a symbol between
	// startDate and endDate inclusive.
	QueryChartByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error)

	// QueryDividends fetches the full dividend event history for a symbol.
	QueryDividends(ctx context.Context, symbol string) (Response, error)
}

// FinanceClient is the production Client backed by the public Yahoo Finance
// chart endpoint.
type FinanceClient struct {
	httpClient *http.Client
}

// NewFinanceClient creates a Yahoo Finance client with the given request
// timeout.
func NewFinanceClient(timeout time.Duration) *FinanceClient {
	return &FinanceClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// QueryLatest fetches the last 5 days of daily price data for a symbol,
// typically used to obtain the latest available closing price.
func (c *FinanceClient) QueryLatest(ctx context.Context, symbol string) (Response, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=5d", baseURL, symbol)
	return c.queryYahoo(ctx, symbol, url)
}

// QueryChartByDateRange fetches daily price data for a symbol within a date
// range, using Unix timestamps for precise control over the window.
func (c *FinanceClient) QueryChartByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	url := fmt.Sprintf(
		"%s/%s?interval=1d&period1=%d&period2=%d",
		baseURL,
		symbol,
		startDate.Unix(),
		endDate.Unix(),
	)
	return c.queryYahoo(ctx, symbol, url)
}

// QueryDividends fetches the complete dividend history of a symbol via the
// chart API's events=div parameter, from the epoch to now.
func (c *FinanceClient) QueryDividends(ctx context.Context, symbol string) (Response, error) {
	url := fmt.Sprintf(
		"%s/%s?interval=1d&period1=0&period2=%d&events=div",
		baseURL,
		symbol,
		time.Now().Unix(),
	)
	return c.queryYahoo(ctx, symbol, url)
}

// queryYahoo executes a chart API request and classifies failures. An HTTP
// 404 or an in-band chart error means the symbol does not exist and wraps
// apperrors.ErrSymbolNotFound; everything else (network failure, throttling,
// server errors) is returned as-is and may be retried by the caller.
func (c *FinanceClient) queryYahoo(ctx context.Context, symbol, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return Response{}, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, symbol)
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("%w: %s (%s)", apperrors.ErrSymbolNotFound, symbol, response.Chart.Error.Code)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	return response, nil
}

// ParseChart converts a raw chart response into a structured price chart.
// Sessions with a null close are dropped, so the resulting indicator series
// contains only days with a usable closing price.
func ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("no results in response")
	}
	result := yahooResult.Chart.Result[0]

	if len(result.Timestamp) == 0 {
		return PriceChart{}, fmt.Errorf("no price data returned")
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return PriceChart{}, fmt.Errorf("no close prices returned")
	}
	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return PriceChart{}, fmt.Errorf("mismatched data lengths")
	}

	indicators := make([]Indicators, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil {
			continue
		}
		ind := Indicators{
			Date:       time.Unix(ts, 0).UTC(),
			PriceClose: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			ind.PriceOpen = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			ind.PriceHigh = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			ind.PriceLow = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			ind.Volume = *quote.Volume[i]
		}
		indicators = append(indicators, ind)
	}

	return PriceChart{
		Symbol:           result.Meta.Symbol,
		Currency:         result.Meta.Currency,
		ExchangeName:     result.Meta.ExchangeName,
		FullExchangeName: result.Meta.FullExchangeName,
		LongName:         result.Meta.LongName,
		Shortname:        result.Meta.Shortname,
		Indicators:       indicators,
	}, nil
}

// ParseDividends extracts the dividend events of a chart response, ordered
// ascending by ex-date. An empty slice means the instrument has no dividend
// history at all, since dividend queries cover the full epoch-to-now range.
func ParseDividends(yahooResult Response) ([]DividendRow, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results in response")
	}
	result := yahooResult.Chart.Result[0]

	rows := make([]DividendRow, 0, len(result.Events.Dividends))
	for _, d := range result.Events.Dividends {
		rows = append(rows, DividendRow{
			Date:   time.Unix(d.Date, 0).UTC(),
			Amount: d.Amount,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	return rows, nil
}

// GetIndicatorForDate searches a chart for price data on a specific calendar
// day, comparing dates truncated to midnight UTC.
func (c PriceChart) GetIndicatorForDate(target time.Time) (Indicators, bool) {
	targetDay := target.UTC().Truncate(24 * time.Hour)
	for _, ind := range c.Indicators {
		if ind.Date.UTC().Truncate(24 * time.Hour).Equal(targetDay) {
			return ind, true
		}
	}
	return Indicators{}, false
}
