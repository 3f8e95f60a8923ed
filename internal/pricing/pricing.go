package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"pricetool/internal/fx"
)

// Ratios is the fixed ordered ratio set used for the candidate table,
// invariant across runs.
var Ratios = []decimal.Decimal{
	decimal.RequireFromString("0.10"),
	decimal.RequireFromString("0.15"),
	decimal.RequireFromString("0.20"),
	decimal.RequireFromString("0.25"),
	decimal.RequireFromString("0.30"),
	decimal.RequireFromString("0.35"),
	decimal.RequireFromString("0.50"),
}

var (
	ErrInvalidCost     = errors.New("cost must be positive")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidRate     = errors.New("exchange rate must be positive")
	ErrInvalidRatio    = errors.New("target ratio must be in [0, 1)")
)

var one = decimal.NewFromInt(1)

// Input are the four values a price table is a pure function of.
type Input struct {
	Cost     decimal.Decimal
	Currency string
	Rate     decimal.Decimal // TWD per unit of Currency; ignored when Currency is TWD
	Quantity int64
}

// Row is one candidate price at a fixed ratio. Markup and margin are
// different pricing models sharing the ratio label; they are reported side by
// side and never conflated. Profit figures derive from the margin price.
type Row struct {
	Ratio       decimal.Decimal `json:"ratio"`
	MarkupPrice decimal.Decimal `json:"markup_price"`
	MarginPrice decimal.Decimal `json:"margin_price"`
	UnitProfit  decimal.Decimal `json:"unit_profit"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// Table is the full candidate table, one row per ratio, ratio ascending.
type Table struct {
	CostTWD decimal.Decimal `json:"cost_twd"`
	Rows    []Row           `json:"rows"`
}

// KPI is the headline figure set for a single target ratio (margin model).
type KPI struct {
	Ratio          decimal.Decimal `json:"ratio"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	UnitProfit     decimal.Decimal `json:"unit_profit"`
	TotalProfit    decimal.Decimal `json:"total_profit"`

	SuggestedPriceDisplay string `json:"suggested_price_display"`
	UnitProfitDisplay     string `json:"unit_profit_display"`
	TotalProfitDisplay    string `json:"total_profit_display"`
}

func (in Input) validate() error {
	if !in.Cost.IsPositive() {
		return ErrInvalidCost
	}
	if in.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if in.Currency != fx.TWD && !in.Rate.IsPositive() {
		return ErrInvalidRate
	}
	return nil
}

// CostInTWD converts the cost to TWD: identity for TWD, cost*rate otherwise.
// The result is rounded to 2 decimal places, the precision every monetary
// output of the table uses.
func CostInTWD(in Input) (decimal.Decimal, error) {
	if err := in.validate(); err != nil {
		return decimal.Zero, err
	}
	if in.Currency == fx.TWD {
		return in.Cost.Round(2), nil
	}
	return in.Cost.Mul(in.Rate).Round(2), nil
}

// Compute builds the candidate table. Pure function of its input; recomputed
// on every interaction.
func Compute(in Input) (Table, error) {
	costTWD, err := CostInTWD(in)
	if err != nil {
		return Table{}, err
	}
	qty := decimal.NewFromInt(in.Quantity)

	rows := make([]Row, 0, len(Ratios))
	for _, r := range Ratios {
		margin := marginPrice(costTWD, r)
		unit := margin.Sub(costTWD)
		rows = append(rows, Row{
			Ratio:       r,
			MarkupPrice: costTWD.Mul(one.Add(r)).Round(2),
			MarginPrice: margin,
			UnitProfit:  unit,
			TotalProfit: unit.Mul(qty),
		})
	}
	return Table{CostTWD: costTWD, Rows: rows}, nil
}

// KPIFor computes the headline figures at an arbitrary target ratio using the
// margin model. Ratios at or above 1.0 would cross the zero divisor and are
// rejected.
func KPIFor(in Input, target decimal.Decimal) (KPI, error) {
	if target.IsNegative() || target.GreaterThanOrEqual(one) {
		return KPI{}, ErrInvalidRatio
	}
	costTWD, err := CostInTWD(in)
	if err != nil {
		return KPI{}, err
	}
	price := marginPrice(costTWD, target)
	unit := price.Sub(costTWD)
	total := unit.Mul(decimal.NewFromInt(in.Quantity))
	return KPI{
		Ratio:                 target,
		SuggestedPrice:        price,
		UnitProfit:            unit,
		TotalProfit:           total,
		SuggestedPriceDisplay: FormatCompact(price),
		UnitProfitDisplay:     FormatCompact(unit),
		TotalProfitDisplay:    FormatCompact(total),
	}, nil
}

// marginPrice is cost/(1-r) rounded to 2 decimal places. The ratio is profit
// as a fraction of the selling price, not of the cost.
func marginPrice(costTWD, r decimal.Decimal) decimal.Decimal {
	return costTWD.Div(one.Sub(r)).Round(2)
}
