package yahoo

import "time"

// Response represents the raw JSON response structure of the Yahoo Finance
// chart API. Price arrays use pointer elements because Yahoo reports null for
// sessions without data (holidays, halted instruments).
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level payload of a chart API response.
type Chart struct {
	Result []Result  `json:"result"`
	Error  *APIError `json:"error"`
}

// Result holds one instrument's metadata, timestamps, price indicators and,
// when requested with events=div, its dividend events.
type Result struct {
	Meta       Meta                `json:"meta"`
	Timestamp  []int64             `json:"timestamp"`
	Events     Events              `json:"events"`
	Indicators IndicatorsContainer `json:"indicators"`
}

// Meta carries symbol metadata: ticker, currency and exchange naming.
type Meta struct {
	Currency         string `json:"currency"`
	Symbol           string `json:"symbol"`
	ExchangeName     string `json:"exchangeName"`
	FullExchangeName string `json:"fullExchangeName"`
	LongName         string `json:"longName"`
	Shortname        string `json:"shortName"`
}

// Events holds the dividend map returned for events=div queries, keyed by
// the event's Unix timestamp rendered as a string.
type Events struct {
	Dividends map[string]DividendEntry `json:"dividends"`
}

// DividendEntry is a single dividend event: per-share amount and ex-date.
type DividendEntry struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// IndicatorsContainer wraps the quote arrays of a chart result.
type IndicatorsContainer struct {
	Quote []Quote `json:"quote"`
}

// Quote holds the OHLCV arrays of a chart result, index-aligned with the
// result's Timestamp array.
type Quote struct {
	Open   []*float64 `json:"open"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
}

// APIError is the error object Yahoo embeds in a chart response.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// PriceChart is the parsed, internal representation of a chart response:
// symbol metadata plus a time-ordered series of daily price points. Sessions
// Yahoo reported with a null close are dropped during parsing.
type PriceChart struct {
	Currency         string       `json:"currency"`
	Symbol           string       `json:"symbol"`
	ExchangeName     string       `json:"exchangeName"`
	FullExchangeName string       `json:"fullExchangeName"`
	LongName         string       `json:"longName"`
	Shortname        string       `json:"shortName"`
	Indicators       []Indicators `json:"indicators"`
}

// Indicators represents a single trading day's price data.
type Indicators struct {
	Date       time.Time
	PriceOpen  float64
	PriceClose float64
	Volume     int64
	PriceHigh  float64
	PriceLow   float64
}

// DividendRow is one parsed dividend event, ex-date ascending when returned
// from ParseDividends.
type DividendRow struct {
	Date   time.Time
	Amount float64
}
