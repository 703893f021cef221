// Package fxrate resolves currency-conversion rates for dividend
// reinvestment. Lookups never fail: a rate request degrades through market
// quotes, bounded retries and a static last-known-good constant, preferring a
// degraded rate over aborting a simulation.
package fxrate

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/divstrat/dividend-reinvest-backend/internal/yahoo"
)

// pairTickers lists the quote-source ticker aliases tried, in order, for an
// ordered currency pair.
var pairTickers = map[string][]string{
	"USD/KRW": {"USDKRW=X", "KRW=X"},
	"KRW/USD": {"KRWUSD=X"},
	"USD/JPY": {"USDJPY=X", "JPY=X"},
	"JPY/USD": {"JPYUSD=X"},
	"EUR/USD": {"EURUSD=X"},
	"USD/EUR": {"USDEUR=X"},
	"GBP/USD": {"GBPUSD=X"},
	"USD/GBP": {"USDGBP=X"},
	"USD/CAD": {"USDCAD=X", "CAD=X"},
	"CAD/USD": {"CADUSD=X"},
}

// band is the plausible range for a fetched rate. Quotes outside the band are
// rejected as bad data. Pairs without a band skip the check.
type band struct {
	min, max float64
}

var sanityBands = map[string]band{
	"USD/KRW": {700, 2000},
	"KRW/USD": {1.0 / 2000, 1.0 / 700},
	"USD/JPY": {70, 400},
	"JPY/USD": {1.0 / 400, 1.0 / 70},
	"EUR/USD": {0.7, 2.0},
	"USD/EUR": {0.5, 1.5},
	"GBP/USD": {0.9, 2.5},
	"USD/GBP": {0.4, 1.2},
}

// fallbackRates holds last-known-good constants for forward pairs. The
// inverse pair is always computed as the reciprocal of the forward constant
// rather than maintained separately.
var fallbackRates = map[string]float64{
	"USD/KRW": 1350.0,
	"USD/JPY": 150.0,
	"EUR/USD": 1.10,
	"GBP/USD": 1.30,
	"USD/CAD": 1.36,
}

// quoteWindowDays is how many calendar days past the requested date a rate
// quote may come from.
const quoteWindowDays = 5

// Provider resolves conversion rates against the quote source and caches
// results for the lifetime of the process. The cache is the only state shared
// across simulations; entries are immutable once written, so concurrent
// readers are safe and duplicate fetches for the same key are merely wasteful.
type Provider struct {
	client      yahoo.Client
	cache       *cache.Cache
	maxAttempts int
	backoff     time.Duration
}

// NewProvider creates an exchange-rate provider with an explicit cache.
// maxAttempts bounds fetch attempts (minimum 1); backoff is the base delay of
// the exponential retry schedule.
func NewProvider(client yahoo.Client, c *cache.Cache, maxAttempts int, backoff time.Duration) *Provider {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Provider{
		client:      client,
		cache:       c,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Rate returns the conversion rate from one currency to another as of a
// date. Same-currency requests return exactly 1 with no I/O. Otherwise the
// rate comes from the quote source (the data point closest to the date, first
// occurrence winning ties), validated against the pair's sanity band, with
// bounded retries; once retries are exhausted the static last-known-good
// constant for the pair is used. The outcome is cached per (date, from, to).
func (p *Provider) Rate(ctx context.Context, date time.Time, from, to string) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}

	key := cacheKey(date, from, to)
	if cached, found := p.cache.Get(key); found {
		return cached.(decimal.Decimal)
	}

	rate, err := p.fetchRate(ctx, date, from, to)
	if err != nil {
		rate = p.fallbackRate(from, to)
		log.Printf("fxrate: using fallback rate %s for %s/%s on %s: %v",
			rate, from, to, date.Format("2006-01-02"), err)
	}

	p.cache.Set(key, rate, cache.DefaultExpiration)
	return rate
}

// Flush clears every cached rate. Wired to the nightly maintenance job so
// that rates cached intraday for the current day do not outlive the session
// they were quoted in.
func (p *Provider) Flush() {
	p.cache.Flush()
}

// fetchRate tries each ticker alias of the pair against the quote source,
// retrying transient failures with exponential backoff up to the configured
// attempt budget.
func (p *Provider) fetchRate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error) {
	tickers, ok := pairTickers[pairKey(from, to)]
	if !ok {
		// Unlisted pairs still get one shot via the conventional ticker form.
		tickers = []string{fmt.Sprintf("%s%s=X", from, to)}
	}

	var rate decimal.Decimal
	b := retry.WithMaxRetries(uint64(p.maxAttempts-1), retry.NewExponential(p.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		for _, ticker := range tickers {
			quoted, err := p.quotePair(ctx, ticker, date)
			if err != nil {
				continue
			}
			if !p.withinBand(from, to, quoted) {
				continue
			}
			rate = decimal.NewFromFloat(quoted)
			return nil
		}
		return retry.RetryableError(fmt.Errorf("no usable quote for %s/%s", from, to))
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rate, nil
}

// quotePair fetches the pair ticker's chart around the date and picks the
// close whose session is nearest the requested date by absolute day
// difference. Ties resolve to the first occurrence in sorted order.
func (p *Provider) quotePair(ctx context.Context, ticker string, date time.Time) (float64, error) {
	start := day(date)
	end := start.AddDate(0, 0, quoteWindowDays+1)

	resp, err := p.client.QueryChartByDateRange(ctx, ticker, start, end)
	if err != nil {
		return 0, err
	}
	chart, err := yahoo.ParseChart(resp)
	if err != nil {
		return 0, err
	}

	best := -1
	bestDist := math.MaxFloat64
	for i, ind := range chart.Indicators {
		if ind.PriceClose <= 0 {
			continue
		}
		dist := math.Abs(day(ind.Date).Sub(start).Hours())
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("no rate data for %s around %s", ticker, start.Format("2006-01-02"))
	}
	return chart.Indicators[best].PriceClose, nil
}

// withinBand reports whether a quoted rate is plausible for the pair. Pairs
// without a configured band accept any positive rate.
func (p *Provider) withinBand(from, to string, rate float64) bool {
	b, ok := sanityBands[pairKey(from, to)]
	if !ok {
		return rate > 0
	}
	return rate >= b.min && rate <= b.max
}

// fallbackRate is the last-resort constant for the pair. The inverse of a
// known forward pair is computed as its reciprocal; a completely unknown pair
// converts at parity, matching the original behavior of the simulation.
func (p *Provider) fallbackRate(from, to string) decimal.Decimal {
	if fwd, ok := fallbackRates[pairKey(from, to)]; ok {
		return decimal.NewFromFloat(fwd)
	}
	if inv, ok := fallbackRates[pairKey(to, from)]; ok {
		return decimal.NewFromInt(1).Div(decimal.NewFromFloat(inv))
	}
	return decimal.NewFromInt(1)
}

func pairKey(from, to string) string {
	return from + "/" + to
}

func cacheKey(date time.Time, from, to string) string {
	return date.Format("2006-01-02") + "|" + from + "|" + to
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
