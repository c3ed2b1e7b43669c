// Package quickadd parses one-line expense entries like "25 comida" or
// "comida 25".
package quickadd

import (
	"regexp"
	"strconv"
	"strings"
)

// The two accepted shapes. Amount-first is tried before amount-last, so a
// line like "25 50" resolves its ambiguity in favor of the leading number.
var (
	amountFirst = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(.+)$`)
	amountLast  = regexp.MustCompile(`^(.+?)\s*(\d+(?:[.,]\d+)?)$`)

	nonNumeric = regexp.MustCompile(`[^0-9.,]`)
)

// Entry is a successfully parsed quick-add line.
type Entry struct {
	Amount float64
	// Hint is the free text left after removing the amount. It still
	// needs classification into a taxonomy category.
	Hint string
}

// Parse extracts an amount and a category hint from a single line.
// It reports false when the line does not look like a quick-add entry or
// the amount is not strictly positive.
func Parse(text string) (Entry, bool) {
	text = strings.TrimSpace(text)

	var amountStr, hint string
	if m := amountFirst.FindStringSubmatch(text); m != nil {
		amountStr, hint = m[1], m[2]
	} else if m := amountLast.FindStringSubmatch(text); m != nil {
		hint, amountStr = m[1], m[2]
	} else {
		return Entry{}, false
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(amountStr, ",", "."), 64)
	if err != nil || amount <= 0 {
		return Entry{}, false
	}
	return Entry{Amount: amount, Hint: strings.TrimSpace(hint)}, true
}

// ParseAmount parses a bare amount reply. Everything except digits and
// decimal separators is stripped first, so inputs like "S/ 15.50" still
// work. Reports false unless the result is strictly positive.
func ParseAmount(text string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
