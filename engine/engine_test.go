package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/gastobot/engine/session"
	"github.com/m3rciful/gastobot/expenses"
)

const (
	testSender = "+51987654321"
	testUserID = "user-1"
)

var testNow = time.Date(2024, time.March, 15, 13, 0, 0, 0, time.UTC)

type fakeStore struct {
	items  []expenses.Expense
	nextID int

	insertErr error
	updateErr error
	deleteErr error
	listErr   error
}

func (f *fakeStore) Insert(_ context.Context, e *expenses.Expense) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	e.ID = fmt.Sprintf("exp-%d", f.nextID)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = testNow.Add(time.Duration(f.nextID) * time.Minute)
	}
	f.items = append(f.items, *e)
	return nil
}

func (f *fakeStore) Update(_ context.Context, id, owner string, fields expenses.UpdateFields) (*expenses.Expense, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].UserID == owner {
			if fields.Amount != nil {
				f.items[i].Amount = *fields.Amount
			}
			if fields.Currency != nil {
				f.items[i].Currency = *fields.Currency
			}
			if fields.Category != nil {
				f.items[i].Category = *fields.Category
			}
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, expenses.ErrNotFound
}

func (f *fakeStore) Delete(_ context.Context, id, owner string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].UserID == owner {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return expenses.ErrNotFound
}

func (f *fakeStore) ListPage(_ context.Context, owner string, offset, limit int) ([]expenses.Expense, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var owned []expenses.Expense
	for _, e := range f.items {
		if e.UserID == owner {
			owned = append(owned, e)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	if offset >= len(owned) {
		return nil, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (f *fakeStore) ListRange(_ context.Context, owner string, start, end time.Time) ([]expenses.Expense, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []expenses.Expense
	for _, e := range f.items {
		if e.UserID != owner {
			continue
		}
		if !e.CreatedAt.Before(start) && e.CreatedAt.Before(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type fakeUsers struct {
	byPhone map[string]string
}

func (f *fakeUsers) UserIDByPhone(_ context.Context, phone string) (string, error) {
	id, ok := f.byPhone[phone]
	if !ok {
		return "", expenses.ErrNotFound
	}
	return id, nil
}

func newTestEngine(store *fakeStore) *Engine {
	return New(Options{
		Sessions:     session.NewMemoryManager(time.Minute),
		Store:        store,
		Users:        &fakeUsers{byPhone: map[string]string{testSender: testUserID}},
		USDToPENRate: 3.8,
		Location:     time.UTC,
		Now:          func() time.Time { return testNow },
	})
}

func send(t *testing.T, e *Engine, msg string) []string {
	t.Helper()
	replies, err := e.Handle(context.Background(), testSender, msg)
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	return replies
}

func TestUnregisteredSender(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	replies, err := e.Handle(context.Background(), "+10000000000", "hola")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "registrarte")
}

func TestMenuKeywords(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	for _, kw := range []string{"hola", "MENU", "  inicio ", "hello"} {
		replies := send(t, e, kw)
		assert.Contains(t, replies[0], "Elige una opción", "keyword %q", kw)
	}
}

func TestFallbackHelp(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	replies := send(t, e, "qué tal")
	assert.Contains(t, replies[0], "No entendí")
}

func TestQuickAddEndToEnd(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)

	replies := send(t, e, "25.50 comida")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "S/25.50")
	assert.Contains(t, replies[0], "🍔 Comida y Bebida")

	require.Len(t, store.items, 1)
	got := store.items[0]
	assert.Equal(t, testUserID, got.UserID)
	assert.InDelta(t, 25.50, got.Amount, 1e-9)
	assert.Equal(t, expenses.CurrencyPEN, got.Currency)
	assert.Equal(t, "🍔 Comida y Bebida", got.Category)

	// Session stays absent: the next message is a fresh menu command.
	replies = send(t, e, "hola")
	assert.Contains(t, replies[0], "Elige una opción")
}

func TestQuickAddUnknownHintFallsThrough(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)
	replies := send(t, e, "25 zzz")
	assert.Contains(t, replies[0], "No entendí")
	assert.Empty(t, store.items)
}

func TestAddExpenseFlow(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)

	replies := send(t, e, "1")
	assert.Contains(t, replies[0], "¿En qué moneda")

	replies = send(t, e, "1")
	assert.Contains(t, replies[0], "monto del gasto")

	replies = send(t, e, "100")
	assert.Contains(t, replies[0], "elige una categoría")

	replies = send(t, e, "9")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "🎁 Otros")
	assert.Contains(t, replies[0], "S/100.00")

	require.Len(t, store.items, 1)
	assert.Equal(t, "🎁 Otros", store.items[0].Category)
	assert.Equal(t, expenses.CurrencyPEN, store.items[0].Currency)
	assert.InDelta(t, 100, store.items[0].Amount, 1e-9)

	// Flow is over; the next message starts fresh.
	replies = send(t, e, "hola")
	assert.Contains(t, replies[0], "Elige una opción")
}

func TestInvalidAmountReprompts(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	send(t, e, "1")
	send(t, e, "2") // USD

	replies := send(t, e, "mucho")
	assert.Contains(t, replies[0], "Monto no válido")

	// State is unchanged: a valid amount still advances.
	replies = send(t, e, "15,50")
	assert.Contains(t, replies[0], "elige una categoría")
}

func TestCancelFromAmountState(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	send(t, e, "1")
	send(t, e, "1")

	replies := send(t, e, "cancelar")
	assert.Contains(t, replies[0], "Proceso cancelado")

	// The next message is a menu command, not an amount.
	replies = send(t, e, "menu")
	assert.Contains(t, replies[0], "Elige una opción")
}

func TestCancelWithoutActiveFlow(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	replies := send(t, e, "cancelar")
	assert.Contains(t, replies[0], "ningún proceso activo")
}

func seedExpenses(store *fakeStore, n int) {
	for i := 0; i < n; i++ {
		store.nextID++
		store.items = append(store.items, expenses.Expense{
			ID:        fmt.Sprintf("exp-%d", store.nextID),
			UserID:    testUserID,
			Amount:    float64(i + 1),
			Currency:  expenses.CurrencyPEN,
			Category:  "🎁 Otros",
			CreatedAt: testNow.Add(-time.Duration(n-i) * time.Hour),
		})
	}
}

func TestDeletePagination(t *testing.T) {
	store := &fakeStore{}
	seedExpenses(store, 25)
	e := newTestEngine(store)

	send(t, e, "3")
	replies := send(t, e, "1")
	assert.Contains(t, replies[0], "*borrar*")
	assert.Contains(t, replies[0], "Ver más gastos")
	assert.Equal(t, 10, strings.Count(replies[0], "️⃣")-1) // 10 rows plus the sentinel

	replies = send(t, e, "11")
	assert.Contains(t, replies[0], "Ver más gastos")

	replies = send(t, e, "11")
	// Third page holds the remaining 5 and offers no continuation.
	assert.NotContains(t, replies[0], "Ver más gastos")
	assert.Equal(t, 5, strings.Count(replies[0], "️⃣"))

	// Delete the second entry of the current page.
	replies = send(t, e, "2")
	assert.Contains(t, replies[0], "eliminado correctamente")
	assert.Len(t, store.items, 24)
}

func TestDeleteSeeMoreOnShortPageIsRejected(t *testing.T) {
	store := &fakeStore{}
	seedExpenses(store, 3)
	e := newTestEngine(store)

	send(t, e, "3")
	send(t, e, "1")
	replies := send(t, e, "11")
	assert.Contains(t, replies[0], "Opción no válida")
}

func TestDeleteWithNoExpenses(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	send(t, e, "3")
	replies := send(t, e, "1")
	assert.Contains(t, replies[0], "No tienes gastos para borrar")

	// Session was cleared along with the empty result.
	replies = send(t, e, "hola")
	assert.Contains(t, replies[0], "Elige una opción")
}

func TestModifyAmountFlow(t *testing.T) {
	store := &fakeStore{}
	seedExpenses(store, 1)
	e := newTestEngine(store)

	send(t, e, "3")
	replies := send(t, e, "2")
	assert.Contains(t, replies[0], "*modificar*")

	replies = send(t, e, "1")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "Estas modificando el gasto")
	assert.Contains(t, replies[1], "Qué quieres modificar")

	replies = send(t, e, "1")
	assert.Contains(t, replies[0], "nuevo monto")

	replies = send(t, e, "80")
	assert.Contains(t, replies[0], "Monto actualizado")
	assert.Contains(t, replies[0], "S/80.00")
	assert.InDelta(t, 80, store.items[0].Amount, 1e-9)
}

func TestModifyCurrencyFlow(t *testing.T) {
	store := &fakeStore{}
	seedExpenses(store, 1)
	e := newTestEngine(store)

	send(t, e, "3")
	send(t, e, "2")
	send(t, e, "1")
	send(t, e, "2")
	replies := send(t, e, "usd")
	assert.Contains(t, replies[0], "Moneda actualizada")
	assert.Equal(t, expenses.CurrencyUSD, store.items[0].Currency)
}

func TestAnalysisSummaryAndDeepDive(t *testing.T) {
	store := &fakeStore{}
	// Two current-month expenses: A=120, B=80 (grand total 200).
	store.items = append(store.items,
		expenses.Expense{ID: "a", UserID: testUserID, Amount: 120, Currency: expenses.CurrencyPEN,
			Category: "🍔 Comida y Bebida", CreatedAt: testNow.Add(-48 * time.Hour)},
		expenses.Expense{ID: "b", UserID: testUserID, Amount: 80, Currency: expenses.CurrencyPEN,
			Category: "🚕 Transporte", CreatedAt: testNow.Add(-24 * time.Hour)},
	)
	e := newTestEngine(store)

	replies := send(t, e, "2")
	assert.Contains(t, replies[0], "Selecciona un período")

	replies = send(t, e, "2") // current month
	assert.Contains(t, replies[0], "Resumen del mes actual")
	assert.Contains(t, replies[0], "S/200.00")
	assert.Contains(t, replies[0], "registrados:* 2")

	replies = send(t, e, "1")
	assert.Contains(t, replies[0], "Análisis Profundo")
	assert.Contains(t, replies[0], "🍔 Comida y Bebida")
	assert.Contains(t, replies[0], "S/120.00")
	assert.Contains(t, replies[0], "(60.0% del total del periodo)")
}

func TestAnalysisPreviousMonthShowsLastDay(t *testing.T) {
	store := &fakeStore{}
	store.items = append(store.items, expenses.Expense{
		ID: "feb", UserID: testUserID, Amount: 10, Currency: expenses.CurrencyPEN,
		Category: "🎁 Otros", CreatedAt: time.Date(2024, time.February, 10, 9, 0, 0, 0, time.UTC),
	})
	e := newTestEngine(store)

	send(t, e, "2")
	replies := send(t, e, "3") // previous calendar month
	assert.Contains(t, replies[0], "Resumen de hace 1 mes")
	// The query window is half-open at March 1st; the shown range ends
	// on February's last day.
	assert.Contains(t, replies[0], "(analizando del 01/02/2024 al 29/02/2024)")
}

func TestAnalysisEmptyWindowClearsSession(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	send(t, e, "2")
	replies := send(t, e, "1")
	assert.Contains(t, replies[0], "No tienes gastos registrados")

	replies = send(t, e, "hola")
	assert.Contains(t, replies[0], "Elige una opción")
}

func TestStoreErrorAbortsFlow(t *testing.T) {
	store := &fakeStore{listErr: fmt.Errorf("db down")}
	e := newTestEngine(store)

	send(t, e, "3")
	replies := send(t, e, "1")
	assert.Contains(t, replies[0], "Hubo un error")

	// Session cleared: the flow is aborted, not retried.
	replies = send(t, e, "hola")
	assert.Contains(t, replies[0], "Elige una opción")
}

func TestConcurrentMessagesSameSenderSerialize(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store)

	send(t, e, "1")
	send(t, e, "1") // PEN; the session now awaits the amount

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Handle(context.Background(), testSender, "50")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Whichever message ran second landed on the category prompt as an
	// invalid choice; completing the flow records exactly one expense.
	replies := send(t, e, "9")
	require.Len(t, replies, 2)
	require.Len(t, store.items, 1)
	assert.InDelta(t, 50, store.items[0].Amount, 1e-9)

	// The lock table drains once nothing is in flight.
	e.lockMu.Lock()
	assert.Empty(t, e.senderLocks)
	e.lockMu.Unlock()
}

func TestCurrencyAcceptsNames(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	send(t, e, "1")
	replies := send(t, e, "soles")
	assert.Contains(t, replies[0], "monto del gasto")
}
