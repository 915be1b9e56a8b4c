package calc

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// MaxFractionDigits is the precision shown for results.
const MaxFractionDigits = 5

// Format renders v for display in English.
func Format(v float64) string {
	return FormatIn(language.English, v)
}

// FormatIn renders v with the digit grouping of tag and at most
// MaxFractionDigits decimals.
func FormatIn(tag language.Tag, v float64) string {
	// Values that round to zero would otherwise print as "-0".
	if math.Abs(v) < 0.5e-5 {
		v = 0
	}
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(MaxFractionDigits)))
}
