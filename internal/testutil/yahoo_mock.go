package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/divstrat/dividend-reinvest-backend/internal/yahoo"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined per-symbol responses instead of making actual API
// calls, and can script per-symbol errors and transient failures.
type MockYahooClient struct {
	mu sync.Mutex

	// ChartResponses maps symbols to date-range chart responses
	ChartResponses map[string]yahoo.Response
	// LatestResponses maps symbols to latest-quote responses
	LatestResponses map[string]yahoo.Response
	// DividendResponses maps symbols to dividend history responses
	DividendResponses map[string]yahoo.Response
	// Errors maps symbols to forced errors returned by every query
	Errors map[string]error
	// TransientFailures maps symbols to a number of failures returned
	// before queries start succeeding
	TransientFailures map[string]int
	// QueryCount tracks how many times any query method was called
	QueryCount int
}

// NewMockYahooClient creates a new mock Yahoo client with no configured data.
// Queries for unconfigured symbols fail, mimicking an unreachable quote source.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{
		ChartResponses:    make(map[string]yahoo.Response),
		LatestResponses:   make(map[string]yahoo.Response),
		DividendResponses: make(map[string]yahoo.Response),
		Errors:            make(map[string]error),
		TransientFailures: make(map[string]int),
	}
}

// WithChart configures the response returned by QueryChartByDateRange for a symbol.
func (m *MockYahooClient) WithChart(symbol string, resp yahoo.Response) *MockYahooClient {
	m.ChartResponses[symbol] = resp
	return m
}

// WithLatest configures the response returned by QueryLatest for a symbol.
func (m *MockYahooClient) WithLatest(symbol string, resp yahoo.Response) *MockYahooClient {
	m.LatestResponses[symbol] = resp
	return m
}

// WithDividends configures the response returned by QueryDividends for a symbol.
func (m *MockYahooClient) WithDividends(symbol string, resp yahoo.Response) *MockYahooClient {
	m.DividendResponses[symbol] = resp
	return m
}

// WithError configures the mock to return the specified error for a symbol.
func (m *MockYahooClient) WithError(symbol string, err error) *MockYahooClient {
	m.Errors[symbol] = err
	return m
}

// FailingFirst configures the mock to fail the first n queries for a symbol
// with a transient error before serving the configured responses.
func (m *MockYahooClient) FailingFirst(symbol string, n int) *MockYahooClient {
	m.TransientFailures[symbol] = n
	return m
}

// Calls returns how many query calls the mock has served.
func (m *MockYahooClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.QueryCount
}

// QueryLatest mocks the 5-day latest quote query.
func (m *MockYahooClient) QueryLatest(_ context.Context, symbol string) (yahoo.Response, error) {
	return m.serve(symbol, m.LatestResponses)
}

// QueryChartByDateRange mocks the date range query.
func (m *MockYahooClient) QueryChartByDateRange(_ context.Context, symbol string, _, _ time.Time) (yahoo.Response, error) {
	return m.serve(symbol, m.ChartResponses)
}

// QueryDividends mocks the dividend history query.
func (m *MockYahooClient) QueryDividends(_ context.Context, symbol string) (yahoo.Response, error) {
	return m.serve(symbol, m.DividendResponses)
}

func (m *MockYahooClient) serve(symbol string, responses map[string]yahoo.Response) (yahoo.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++

	if err, ok := m.Errors[symbol]; ok {
		return yahoo.Response{}, err
	}
	if n := m.TransientFailures[symbol]; n > 0 {
		m.TransientFailures[symbol] = n - 1
		return yahoo.Response{}, fmt.Errorf("yahoo returned status 500 for %s", symbol)
	}
	resp, ok := responses[symbol]
	if !ok {
		return yahoo.Response{}, fmt.Errorf("no mock data configured for %s", symbol)
	}
	return resp, nil
}
