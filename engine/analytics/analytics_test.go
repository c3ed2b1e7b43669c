package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/gastobot/expenses"
)

func exp(amount float64, cur expenses.Currency, category string, at time.Time) expenses.Expense {
	return expenses.Expense{Amount: amount, Currency: cur, Category: category, CreatedAt: at}
}

func TestSummarizeKeepsCurrenciesSeparate(t *testing.T) {
	at := time.Now()
	s := Summarize([]expenses.Expense{
		exp(10, expenses.CurrencyPEN, "a", at),
		exp(5.5, expenses.CurrencyPEN, "b", at),
		exp(3, expenses.CurrencyUSD, "a", at),
	})
	assert.Equal(t, 15.5, s.TotalPEN)
	assert.Equal(t, 3.0, s.TotalUSD)
	assert.Equal(t, 3, s.Count)
}

func TestAnalyzeTopCategoryShare(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	d := Analyze([]expenses.Expense{
		exp(120, expenses.CurrencyPEN, "A", at),
		exp(80, expenses.CurrencyPEN, "B", at),
	}, 3.8, time.UTC)
	require.Equal(t, "A", d.TopCategory)
	assert.InDelta(t, 120.0, d.TopCategoryTotal, 1e-9)
	assert.InDelta(t, 60.0, d.TopCategoryShare, 1e-9)
}

func TestAnalyzeConvertsUSD(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	d := Analyze([]expenses.Expense{
		exp(10, expenses.CurrencyUSD, "A", at), // 38 PEN at 3.8
		exp(30, expenses.CurrencyPEN, "B", at),
	}, 3.8, time.UTC)
	require.Equal(t, "A", d.TopCategory)
	assert.InDelta(t, 38.0, d.TopCategoryTotal, 1e-9)
}

func TestAnalyzeTieBreakFirstEncountered(t *testing.T) {
	d1 := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	d := Analyze([]expenses.Expense{
		exp(50, expenses.CurrencyPEN, "B", d2),
		exp(50, expenses.CurrencyPEN, "A", d1),
	}, 3.8, time.UTC)
	// Equal totals: the category and day seen first in item order win.
	assert.Equal(t, "B", d.TopCategory)
	assert.Equal(t, "11/03/2024", d.TopDay)
}

func TestAnalyzeDayBucketsUseLocation(t *testing.T) {
	// 01:00 UTC on the 11th is still the 10th in Lima (UTC-5).
	lima, err := time.LoadLocation("America/Lima")
	require.NoError(t, err)
	at := time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)
	d := Analyze([]expenses.Expense{
		exp(10, expenses.CurrencyPEN, "A", at),
	}, 3.8, lima)
	assert.Equal(t, "10/03/2024", d.TopDay)
}

func TestAnalyzeEmpty(t *testing.T) {
	d := Analyze(nil, 3.8, time.UTC)
	assert.Equal(t, "N/A", d.TopCategory)
	assert.Equal(t, "N/A", d.TopDay)
	assert.Zero(t, d.TopCategoryShare)
}
