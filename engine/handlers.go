package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/gastobot/core/logger"
	"github.com/m3rciful/gastobot/engine/analytics"
	"github.com/m3rciful/gastobot/engine/quickadd"
	"github.com/m3rciful/gastobot/engine/session"
	"github.com/m3rciful/gastobot/engine/taxonomy"
	"github.com/m3rciful/gastobot/engine/timeframe"
	"github.com/m3rciful/gastobot/expenses"
	"log/slog"
)

// handleIdle interprets a message with no active session: quick-add
// first, then menu keywords, then numbered menu selections, then help.
func (e *Engine) handleIdle(ctx context.Context, userID, sender, msg string) []string {
	if entry, ok := quickadd.Parse(msg); ok {
		if category, matched := taxonomy.Classify(entry.Hint); matched {
			exp := &expenses.Expense{
				UserID:   userID,
				Amount:   entry.Amount,
				Currency: expenses.CurrencyPEN,
				Category: category,
			}
			if err := e.store.Insert(ctx, exp); err != nil {
				return []string{replyInsertError}
			}
			logger.LogEvent(ctx, logger.ENG, slog.LevelInfo, "expense.quick_add",
				slog.String("status", "ok"),
				slog.String("category", category),
				slog.Float64("amount", entry.Amount),
			)
			return []string{replyQuickSaved(entry.Amount, category), replyAddAnother}
		}
		// No category match: fall through to the menu commands.
	}

	if _, ok := menuKeywords[msg]; ok {
		return []string{replyMenu}
	}

	switch msg {
	case "1":
		s := e.sessions.GetOrCreate(sender)
		*s = session.Session{State: session.StateAwaitingCurrency}
		return []string{replyCurrencyPrompt}
	case "2":
		s := e.sessions.GetOrCreate(sender)
		*s = session.Session{State: session.StateAwaitingAnalysisTimeframe}
		return []string{replyTimeframeMenu}
	case "3":
		s := e.sessions.GetOrCreate(sender)
		*s = session.Session{State: session.StateAwaitingDeleteOrModifyChoice}
		return []string{replyDeleteOrModifyMenu}
	}
	return []string{replyFallback}
}

func (e *Engine) handleCurrency(s *session.Session, msg string) []string {
	currency, ok := matchCurrency(msg)
	if !ok {
		return []string{replyCurrencyInvalid}
	}
	s.PendingCurrency = currency
	s.State = session.StateAwaitingExpenseAmount
	return []string{replyAmountPrompt}
}

func (e *Engine) handleExpenseAmount(s *session.Session, msg string) []string {
	amount, ok := quickadd.ParseAmount(msg)
	if !ok {
		return []string{replyAmountInvalid}
	}
	s.PendingAmount = amount
	s.State = session.StateAwaitingCategory
	return []string{renderCategoryList("Ahora, elige una categoría para tu gasto:")}
}

func (e *Engine) handleCategory(ctx context.Context, userID, sender string, s *session.Session, msg string) []string {
	category, ok := taxonomy.ByIndex(parseChoice(msg))
	if !ok {
		return []string{replyCategoryInvalid}
	}

	exp := &expenses.Expense{
		UserID:   userID,
		Amount:   s.PendingAmount,
		Currency: s.PendingCurrency,
		Category: category,
	}
	e.sessions.Clear(sender)
	if err := e.store.Insert(ctx, exp); err != nil {
		return []string{replyInsertError}
	}
	logger.LogEvent(ctx, logger.ENG, slog.LevelInfo, "expense.added",
		slog.String("status", "ok"),
		slog.String("category", category),
		slog.Float64("amount", exp.Amount),
		slog.String("currency", string(exp.Currency)),
	)
	return []string{
		replySaved(exp.Amount, exp.Currency, category),
		replyAddAnother,
	}
}

func (e *Engine) handleDeleteOrModifyChoice(ctx context.Context, userID, sender string, s *session.Session, msg string) []string {
	switch parseChoice(msg) {
	case 1:
		return e.loadFirstPage(ctx, userID, sender, s,
			"Elige el número del gasto que quieres *borrar*:",
			replyNoneToDelete, session.StateAwaitingCancellationChoice)
	case 2:
		return e.loadFirstPage(ctx, userID, sender, s,
			"Elige el número del gasto que quieres *modificar*:",
			replyNoneToModify, session.StateAwaitingModificationSelect)
	case 3:
		e.sessions.Clear(sender)
		return []string{replyMenu}
	}
	return []string{replyDeleteOrModifyInvalid}
}

// loadFirstPage fetches the newest page of the sender's expenses and moves
// the session into the browse state, or clears it when there is nothing
// to show.
func (e *Engine) loadFirstPage(ctx context.Context, userID, sender string, s *session.Session, header, emptyReply string, next session.State) []string {
	page, err := e.store.ListPage(ctx, userID, 0, pageSize)
	if err != nil {
		e.sessions.Clear(sender)
		return []string{replyListError}
	}
	if len(page) == 0 {
		e.sessions.Clear(sender)
		return []string{emptyReply}
	}
	s.Candidates = page
	s.PageOffset = 0
	s.State = next
	return []string{renderExpensePage(header, page, e.loc)}
}

func (e *Engine) handleCancellationChoice(ctx context.Context, userID, sender string, s *session.Session, msg string) []string {
	choice := parseChoice(msg)

	// The "see more" sentinel is only honored when the current page is
	// full; a short page means the history is exhausted.
	if choice == pageSize+1 && len(s.Candidates) == pageSize {
		offset := s.PageOffset + pageSize
		page, err := e.store.ListPage(ctx, userID, offset, pageSize)
		if err != nil {
			e.sessions.Clear(sender)
			return []string{replyMorePagesError}
		}
		if len(page) == 0 {
			return []string{replyNoMorePages}
		}
		s.Candidates = page
		s.PageOffset = offset
		return []string{renderExpensePage("Elige el número del gasto que quieres cancelar:", page, e.loc)}
	}

	if choice >= 1 && choice <= len(s.Candidates) {
		target := s.Candidates[choice-1]
		e.sessions.Clear(sender)
		if err := e.store.Delete(ctx, target.ID, userID); err != nil {
			return []string{replyDeleteError}
		}
		logger.LogEvent(ctx, logger.ENG, slog.LevelInfo, "expense.deleted",
			slog.String("status", "ok"),
			slog.String("expense_id", target.ID),
		)
		return []string{replyDeleted(&target), replyBackToMenu}
	}

	return []string{replyDeleteInvalid}
}

func (e *Engine) handleModificationSelection(s *session.Session, msg string) []string {
	choice := parseChoice(msg)
	if choice < 1 || choice > len(s.Candidates) {
		return []string{replySelectionInvalid}
	}
	target := s.Candidates[choice-1]
	s.Selected = &target
	s.State = session.StateAwaitingModificationField
	return []string{
		"Estas modificando el gasto:\n" + expenseLine(&target, e.loc),
		replyFieldMenu,
	}
}

func (e *Engine) handleModificationField(s *session.Session, msg string) []string {
	switch parseChoice(msg) {
	case 1:
		s.State = session.StateAwaitingNewAmount
		return []string{replyNewAmountPrompt}
	case 2:
		s.State = session.StateAwaitingNewCurrency
		return []string{replyNewCurrencyPrompt}
	case 3:
		s.State = session.StateAwaitingNewCategory
		return []string{renderCategoryList("Elige la nueva categoría:")}
	}
	return []string{replyFieldInvalid}
}

func (e *Engine) handleNewAmount(ctx context.Context, userID, sender string, s *session.Session, msg string) []string {
	amount, ok := quickadd.ParseAmount(msg)
	if !ok {
		return []string{replyNewAmountInvalid}
	}
	target := s.Selected
	e.sessions.Clear(sender)
	updated, err := e.store.Update(ctx, target.ID, userID, expenses.UpdateFields{Amount: &amount})
	if err != nil {
		return []string{replyNewAmountError}
	}
	return []string{replyUpdated("Monto actualizado", updated, e.loc)}
}

func (e *Engine) handleNewCurrency(ctx context.Context, userID, sender string, s *session.Session, msg string) []string {
	// Unlike the initial currency question this one only recognizes the
	// option number and the currency code, not the spelled-out names.
	var currency expenses.Currency
	switch {
	case strings.HasPrefix(msg, "1"), strings.Contains(msg, "pen"):
		currency = expenses.CurrencyPEN
	case strings.HasPrefix(msg, "2"), strings.Contains(msg, "usd"):
		currency = expenses.CurrencyUSD
	default:
		return []string{replyNewCurrencyInvalid}
	}
	target := s.Selected
	e.sessions.Clear(sender)
	updated, err := e.store.Update(ctx, target.ID, userID, expenses.UpdateFields{Currency: &currency})
	if err != nil {
		return []string{replyNewCurrencyError}
	}
	return []string{replyUpdated("Moneda actualizada", updated, e.loc)}
}

func (e *Engine) handleNewCategory(ctx context.Context, userID, sender string, s *session.Session, msg string) []string {
	category, ok := taxonomy.ByIndex(parseChoice(msg))
	if !ok {
		return []string{replyNewCategoryInvalid}
	}
	target := s.Selected
	e.sessions.Clear(sender)
	updated, err := e.store.Update(ctx, target.ID, userID, expenses.UpdateFields{Category: &category})
	if err != nil {
		return []string{replyNewCategoryError}
	}
	return []string{replyUpdated("Categoría actualizada", updated, e.loc)}
}

func (e *Engine) handleAnalysisTimeframe(ctx context.Context, userID, sender string, s *session.Session, msg string) []string {
	window, ok := timeframe.Resolve(parseChoice(msg), e.now().In(e.loc))
	if !ok {
		return []string{replyTimeframeInvalid}
	}

	items, err := e.store.ListRange(ctx, userID, window.Start, window.End)
	if err != nil {
		e.sessions.Clear(sender)
		return []string{replyAnalysisError}
	}
	if len(items) == 0 {
		e.sessions.Clear(sender)
		return []string{replyAnalysisEmpty}
	}

	s.Window = &window
	s.Results = items
	s.State = session.StateAwaitingDeepAnalysisChoice

	summary := analytics.Summarize(items)
	logger.LogEvent(ctx, logger.ENG, slog.LevelInfo, "analysis.summary",
		slog.String("status", "ok"),
		slog.Time("window_start", window.Start),
		slog.Time("window_end", window.End),
		slog.Int("count", summary.Count),
	)
	return []string{e.renderSummary(&window, summary)}
}

func (e *Engine) renderSummary(w *timeframe.Window, summary analytics.Summary) string {
	totalSpent := ""
	if summary.TotalPEN > 0 {
		totalSpent = fmt.Sprintf("S/%.2f", summary.TotalPEN)
	}
	if summary.TotalUSD > 0 {
		if totalSpent != "" {
			totalSpent += " y "
		}
		totalSpent += fmt.Sprintf("$%.2f", summary.TotalUSD)
	}
	if totalSpent == "" {
		totalSpent = "S/0.00"
	}

	b := strings.Builder{}
	fmt.Fprintf(&b, "📊 *Resumen %s:*\n", w.Label)
	fmt.Fprintf(&b, "(analizando del %s al %s)\n\n",
		w.Start.In(e.loc).Format(dateFormat),
		w.DisplayEnd().In(e.loc).Format(dateFormat))
	fmt.Fprintf(&b, "• *Total gastado:* %s\n", totalSpent)
	fmt.Fprintf(&b, "• *Nº de gastos registrados:* %d\n\n", summary.Count)
	b.WriteString("Elige una opción:\n*1*️⃣ Análisis profundo\n*2*️⃣ Volver al menú")
	return b.String()
}

func (e *Engine) handleDeepAnalysisChoice(sender string, s *session.Session, msg string) []string {
	switch parseChoice(msg) {
	case 1:
		deep := analytics.Analyze(s.Results, e.rate, e.loc)
		e.sessions.Clear(sender)

		b := strings.Builder{}
		b.WriteString("🧠 *Análisis Profundo:*\n")
		fmt.Fprintf(&b, "\n*Categoría con más gastos:*\n• *%s* con un total de S/%.2f (%.1f%% del total del periodo)\n",
			deep.TopCategory, deep.TopCategoryTotal, deep.TopCategoryShare)
		fmt.Fprintf(&b, "\n*Día con más gastos:*\n• *%s* con un total de S/%.2f (%.1f%% del total del periodo)\n",
			deep.TopDay, deep.TopDayTotal, deep.TopDayShare)
		b.WriteString("\nEscribe \"menu\" para volver al inicio.")
		return []string{b.String()}
	case 2:
		e.sessions.Clear(sender)
		return []string{replyMenu}
	}
	return []string{replyDeepAnalysisInvalid}
}
