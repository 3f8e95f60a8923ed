package pricing

import "github.com/shopspring/decimal"

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// FormatCompact renders a monetary value for compact display: values at or
// above one million collapse to "x.xxM", at or above one thousand to "x.xxK",
// everything else stays plain with 2 decimal places. Sign is preserved.
func FormatCompact(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(million):
		return d.Div(million).Round(2).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).Round(2).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}
