package expenses

import "time"

// Currency enumerates the two supported expense currencies.
type Currency string

const (
	// CurrencyPEN is the primary currency. Quick-added expenses default to it.
	CurrencyPEN Currency = "PEN"
	// CurrencyUSD is the secondary currency.
	CurrencyUSD Currency = "USD"
)

// Symbol returns the display prefix used in replies.
func (c Currency) Symbol() string {
	if c == CurrencyPEN {
		return "S/"
	}
	return "$"
}

// Expense is a single registered expense row.
type Expense struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Amount    float64   `db:"amount"`
	Currency  Currency  `db:"currency"`
	Category  string    `db:"category"`
	CreatedAt time.Time `db:"created_at"`
}

// UpdateFields describes a partial expense update. Nil fields are left
// untouched.
type UpdateFields struct {
	Amount   *float64
	Currency *Currency
	Category *string
}
