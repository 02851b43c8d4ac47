// Package format renders indicator values for pt-BR readers.
package format

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"painel/internal/catalog"
)

// Missing is shown for absent values.
const Missing = "N/D"

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Value formats v according to unit. Large currency amounts are scaled to
// millions ("mi") or billions ("bi").
func Value(unit catalog.Unit, v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Missing
	}
	switch unit {
	case catalog.Percentage:
		return printer.Sprintf("%.2f%%", *v)
	case catalog.Ratio:
		return printer.Sprintf("%.2f", *v)
	default:
		return Currency(*v)
	}
}

func Currency(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return printer.Sprintf("%v bi", currency.Symbol(currency.BRL.Amount(v/1e9)))
	case abs >= 1e6:
		return printer.Sprintf("%v mi", currency.Symbol(currency.BRL.Amount(v/1e6)))
	}
	return printer.Sprintf("%v", currency.Symbol(currency.BRL.Amount(v)))
}

// Change renders pct as a signed percentage, e.g. "+13,64%".
func Change(pct float64, ok bool) string {
	if !ok || math.IsNaN(pct) || math.IsInf(pct, 0) {
		return Missing
	}
	if pct > 0 {
		return printer.Sprintf("+%.2f%%", pct)
	}
	return printer.Sprintf("%.2f%%", pct)
}

// Number renders v with two decimals and pt-BR grouping.
func Number(v float64) string {
	return printer.Sprintf("%.2f", v)
}
