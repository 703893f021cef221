// Package export renders simulation results for download. The simulator has
// no knowledge of these formats; export consumes a finished SimulationResult.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/divstrat/dividend-reinvest-backend/internal/model"
)

// WriteTransactionsCSV writes the transaction table of a result as CSV, one
// row per reinvestment purchase. The exchange-rate column is included only
// for cross-currency runs, matching what a same-currency report would show
// on screen.
func WriteTransactionsCSV(w io.Writer, result *model.SimulationResult) error {
	cw := csv.NewWriter(w)

	crossCurrency := result.SourceCurrency != result.TargetCurrency

	header := []string{"ex_date", "trade_date", "dividend_per_share", "gross_dividend"}
	if crossCurrency {
		header = append(header, "exchange_rate")
	}
	header = append(header, "invested_amount", "purchase_price", "shares_purchased", "cumulative_shares")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, tx := range result.Transactions {
		row := []string{
			tx.ExDate.Format("2006-01-02"),
			tx.TradeDate.Format("2006-01-02"),
			tx.DividendPerShare.String(),
			tx.GrossDividend.String(),
		}
		if crossCurrency {
			row = append(row, tx.ExchangeRate.String())
		}
		row = append(row,
			tx.InvestedAmount.String(),
			tx.PurchasePrice.String(),
			fmt.Sprintf("%.6f", tx.SharesPurchased),
			fmt.Sprintf("%.6f", tx.CumulativeShares),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename returns the download filename for a result's CSV export.
func Filename(result *model.SimulationResult) string {
	return fmt.Sprintf("%s_to_%s_investment_history.csv", result.SourceSymbol, result.TargetSymbol)
}
