package view

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var pricePrinter = message.NewPrinter(language.French)

// FormatPrice prints d the French way with a trailing euro sign, e.g. "179,9 €".
// Only the integer part goes through the printer, so no digit is lost to float64.
func FormatPrice(d decimal.Decimal) string {
	r := d.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}

	_, frac, _ := strings.Cut(r.StringFixed(2), ".")
	out := sign + pricePrinter.Sprintf("%v", number.Decimal(r.IntPart()))
	if frac = strings.TrimRight(frac, "0"); frac != "" {
		out += "," + frac
	}
	return out + " €"
}
