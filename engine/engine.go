// Package engine implements the conversational core: it turns a stream of
// inbound messages from a sender into persisted expense actions and reply
// texts, keeping per-sender context across turns.
package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/gastobot/core/logger"
	"github.com/m3rciful/gastobot/engine/session"
	"github.com/m3rciful/gastobot/expenses"
	"log/slog"
)

// pageSize bounds the browse/delete/modify pages. The "see more" sentinel
// is always pageSize + 1.
const pageSize = 10

// Options configure a new Engine.
type Options struct {
	Sessions session.Manager
	Store    expenses.Store
	Users    expenses.Users

	// USDToPENRate converts USD amounts during deep analysis.
	USDToPENRate float64
	// Location is the sender-local zone for date rendering and day buckets.
	Location *time.Location

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine routes inbound messages through the conversation state machine.
type Engine struct {
	sessions session.Manager
	store    expenses.Store
	users    expenses.Users
	rate     float64
	loc      *time.Location
	now      func() time.Time

	// senderLocks serializes in-flight messages per sender. Entries are
	// reference counted and removed once the last holder releases, so
	// the table only holds senders with a message in flight.
	lockMu      sync.Mutex
	senderLocks map[string]*senderLock
}

type senderLock struct {
	mu   sync.Mutex
	refs int
}

// New builds an Engine from the given options.
func New(opts Options) *Engine {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		sessions:    opts.Sessions,
		store:       opts.Store,
		users:       opts.Users,
		rate:        opts.USDToPENRate,
		loc:         loc,
		now:         now,
		senderLocks: make(map[string]*senderLock),
	}
}

// Handle consumes one inbound message and returns the ordered replies.
// Store failures are reported to the sender as replies, not errors; a
// non-nil error here means the message could not be processed at all.
func (e *Engine) Handle(ctx context.Context, sender, body string) ([]string, error) {
	unlock := e.lockSender(sender)
	defer unlock()

	msg := strings.ToLower(strings.TrimSpace(body))

	userID, err := e.users.UserIDByPhone(ctx, sender)
	if err != nil {
		if errors.Is(err, expenses.ErrNotFound) {
			return []string{replyOnboarding}, nil
		}
		return nil, err
	}
	ctx = logger.WithUserID(ctx, userID)

	s, active := e.sessions.Get(sender)
	state := session.State("")
	if active {
		state = s.State
	}
	logger.LogEvent(ctx, logger.ENG, slog.LevelDebug, "engine.turn",
		slog.String("state", string(state)),
		slog.String("payload", logger.SanitizeLimit(msg, 256)),
	)

	// The cancel keyword works from any state, before dispatch.
	if msg == cancelKeyword {
		if active {
			e.sessions.Clear(sender)
			return []string{replyCancelled}, nil
		}
		return []string{replyNothingToCancel}, nil
	}

	if !active {
		return e.handleIdle(ctx, userID, sender, msg), nil
	}

	var replies []string
	switch s.State {
	case session.StateAwaitingCurrency:
		replies = e.handleCurrency(s, msg)
	case session.StateAwaitingExpenseAmount:
		replies = e.handleExpenseAmount(s, msg)
	case session.StateAwaitingCategory:
		replies = e.handleCategory(ctx, userID, sender, s, msg)
	case session.StateAwaitingDeleteOrModifyChoice:
		replies = e.handleDeleteOrModifyChoice(ctx, userID, sender, s, msg)
	case session.StateAwaitingCancellationChoice:
		replies = e.handleCancellationChoice(ctx, userID, sender, s, msg)
	case session.StateAwaitingModificationSelect:
		replies = e.handleModificationSelection(s, msg)
	case session.StateAwaitingModificationField:
		replies = e.handleModificationField(s, msg)
	case session.StateAwaitingNewAmount:
		replies = e.handleNewAmount(ctx, userID, sender, s, msg)
	case session.StateAwaitingNewCurrency:
		replies = e.handleNewCurrency(ctx, userID, sender, s, msg)
	case session.StateAwaitingNewCategory:
		replies = e.handleNewCategory(ctx, userID, sender, s, msg)
	case session.StateAwaitingAnalysisTimeframe:
		replies = e.handleAnalysisTimeframe(ctx, userID, sender, s, msg)
	case session.StateAwaitingDeepAnalysisChoice:
		replies = e.handleDeepAnalysisChoice(sender, s, msg)
	default:
		// A state this switch does not know about cannot be resumed.
		logger.LogEvent(ctx, logger.ENG, slog.LevelWarn, "engine.unknown_state",
			slog.String("state", string(s.State)),
		)
		e.sessions.Clear(sender)
		replies = []string{replyFallback}
	}
	return replies, nil
}

func (e *Engine) lockSender(sender string) func() {
	e.lockMu.Lock()
	l := e.senderLocks[sender]
	if l == nil {
		l = &senderLock{}
		e.senderLocks[sender] = l
	}
	l.refs++
	e.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.senderLocks, sender)
		}
		e.lockMu.Unlock()
	}
}

// parseChoice parses a plain numeric menu selection. Returns 0 for
// anything that is not a positive integer, which no menu accepts.
func parseChoice(msg string) int {
	n, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// matchCurrency interprets a currency selection: a leading option number
// or a currency name anywhere in the text.
func matchCurrency(msg string) (expenses.Currency, bool) {
	switch {
	case strings.HasPrefix(msg, "1"), strings.Contains(msg, "pen"), strings.Contains(msg, "soles"):
		return expenses.CurrencyPEN, true
	case strings.HasPrefix(msg, "2"), strings.Contains(msg, "usd"), strings.Contains(msg, "dolar"):
		return expenses.CurrencyUSD, true
	}
	return "", false
}
