// Package format renders quantities for people: thousands separators and a fixed
// number of decimals.
package format

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Int formats n with thousand separators: 18248 becomes "18,248".
func Int(n int64) string {
	return printer.Sprintf("%d", n)
}

// Float formats f rounded to precision decimals with thousand separators in the integer
// part: Float(81500, 2) is "81,500.00".
func Float(f float64, precision int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return printer.Sprintf("%.*f", precision, f)
}

// TCO2e formats a quantity in tonnes CO2e with two decimals and the unit.
func TCO2e(t float64) string {
	return Float(t, 2) + " tCO2e"
}
