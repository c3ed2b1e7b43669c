// Package analytics aggregates expense sets for the analysis flows.
package analytics

import (
	"time"

	"github.com/m3rciful/gastobot/expenses"
)

// dayKeyFormat renders a calendar day the way replies show dates.
const dayKeyFormat = "02/01/2006"

// Summary is the per-currency roll-up shown after a timeframe is chosen.
// Totals are kept per currency; no conversion happens at this stage.
type Summary struct {
	TotalPEN float64
	TotalUSD float64
	Count    int
}

// Summarize folds an expense set into per-currency totals.
func Summarize(items []expenses.Expense) Summary {
	s := Summary{Count: len(items)}
	for _, e := range items {
		switch e.Currency {
		case expenses.CurrencyPEN:
			s.TotalPEN += e.Amount
		case expenses.CurrencyUSD:
			s.TotalUSD += e.Amount
		}
	}
	return s
}

// Deep is the result of the on-demand deep-analysis pass. Totals are in
// the PEN reference currency; shares are percentages of the converted
// grand total.
type Deep struct {
	TopCategory      string
	TopCategoryTotal float64
	TopCategoryShare float64

	TopDay      string
	TopDayTotal float64
	TopDayShare float64
}

// Analyze converts every expense to PEN using usdRate, then finds the
// category and the calendar day (in loc) with the largest converted
// totals. Ties resolve to the group encountered first in item order; the
// fold is stable on purpose, matching how these figures have always been
// reported.
func Analyze(items []expenses.Expense, usdRate float64, loc *time.Location) Deep {
	if loc == nil {
		loc = time.Local
	}

	toPEN := func(e expenses.Expense) float64 {
		if e.Currency == expenses.CurrencyUSD {
			return e.Amount * usdRate
		}
		return e.Amount
	}

	var grandTotal float64
	catTotals := newOrderedTotals()
	dayTotals := newOrderedTotals()
	for _, e := range items {
		v := toPEN(e)
		grandTotal += v
		catTotals.add(e.Category, v)
		dayTotals.add(e.CreatedAt.In(loc).Format(dayKeyFormat), v)
	}

	d := Deep{TopCategory: "N/A", TopDay: "N/A"}
	if name, total, ok := catTotals.max(); ok {
		d.TopCategory = name
		d.TopCategoryTotal = total
	}
	if name, total, ok := dayTotals.max(); ok {
		d.TopDay = name
		d.TopDayTotal = total
	}
	if grandTotal > 0 {
		d.TopCategoryShare = d.TopCategoryTotal / grandTotal * 100
		d.TopDayShare = d.TopDayTotal / grandTotal * 100
	}
	return d
}

// orderedTotals accumulates totals per key while remembering first
// insertion order, so max() is deterministic on ties.
type orderedTotals struct {
	keys   []string
	totals map[string]float64
}

func newOrderedTotals() *orderedTotals {
	return &orderedTotals{totals: make(map[string]float64)}
}

func (o *orderedTotals) add(key string, v float64) {
	if _, ok := o.totals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.totals[key] += v
}

func (o *orderedTotals) max() (string, float64, bool) {
	if len(o.keys) == 0 {
		return "", 0, false
	}
	best := o.keys[0]
	for _, k := range o.keys[1:] {
		if o.totals[k] > o.totals[best] {
			best = k
		}
	}
	return best, o.totals[best], true
}
