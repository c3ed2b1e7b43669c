// Package session provides per-sender conversation state for the
// expense-tracking flows.
package session

import (
	"github.com/m3rciful/gastobot/engine/timeframe"
	"github.com/m3rciful/gastobot/expenses"
)

// State identifies a step in a multi-turn conversation.
type State string

const (
	StateAwaitingCurrency             State = "awaiting_currency"
	StateAwaitingExpenseAmount        State = "awaiting_expense_amount"
	StateAwaitingCategory             State = "awaiting_category"
	StateAwaitingDeleteOrModifyChoice State = "awaiting_delete_or_modify_choice"
	StateAwaitingCancellationChoice   State = "awaiting_cancellation_choice"
	StateAwaitingModificationSelect   State = "awaiting_modification_selection"
	StateAwaitingModificationField    State = "awaiting_modification_field"
	StateAwaitingNewAmount            State = "awaiting_new_amount"
	StateAwaitingNewCurrency          State = "awaiting_new_currency"
	StateAwaitingNewCategory          State = "awaiting_new_category"
	StateAwaitingAnalysisTimeframe    State = "awaiting_analysis_timeframe"
	StateAwaitingDeepAnalysisChoice   State = "awaiting_deep_analysis_choice"
)

// Session accumulates conversation context across turns. A session exists
// exactly while a multi-turn flow is in progress; its absence means the
// next message is a fresh menu command or quick-add.
type Session struct {
	State State

	// Fields gathered while building a new expense.
	PendingAmount   float64
	PendingCurrency expenses.Currency

	// Page currently shown during browse/delete/modify, plus its offset
	// into the sender's history.
	Candidates []expenses.Expense
	PageOffset int

	// Expense targeted by an in-progress modification.
	Selected *expenses.Expense

	// Resolved analysis window and its cached result set, kept so the
	// deep-analysis pass reuses exactly the data the summary showed.
	Window  *timeframe.Window
	Results []expenses.Expense
}

// Manager owns session lifetime. Implementations evict idle sessions
// after a TTL; callers must not hold a *Session across turns.
type Manager interface {
	Get(sender string) (*Session, bool)
	GetOrCreate(sender string) *Session
	Clear(sender string)
}
