// Package currency maps instrument symbols to their trading currency based
// on the exchange suffix convention used by the quote source. Resolution is a
// pure function of the symbol's textual form: no I/O, no failure mode, and
// the same symbol always resolves to the same currency.
package currency

import "strings"

type info struct {
	code    string
	display string
}

// suffixes maps a quote-source exchange suffix to its national currency.
// Symbols without a recognized suffix default to USD.
var suffixes = map[string]info{
	"KS": {"KRW", "₩"}, // Korea Exchange
	"KQ": {"KRW", "₩"}, // KOSDAQ
	"T":  {"JPY", "¥"}, // Tokyo
	"L":  {"GBP", "£"}, // London
	"DE": {"EUR", "€"}, // XETRA
	"PA": {"EUR", "€"}, // Paris
	"AS": {"EUR", "€"}, // Amsterdam
	"MI": {"EUR", "€"}, // Milan
	"TO": {"CAD", "C$"}, // Toronto
}

// Resolve returns the ISO currency code and display symbol for an instrument
// symbol. Classification is by exchange suffix ("005930.KS" -> KRW); a symbol
// without a recognized suffix resolves to USD.
func Resolve(symbol string) (code, display string) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.LastIndex(s, "."); i >= 0 && i < len(s)-1 {
		if inf, ok := suffixes[s[i+1:]]; ok {
			return inf.code, inf.display
		}
	}
	return "USD", "$"
}
