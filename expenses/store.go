package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/gastobot/core/logger"
	"log/slog"
)

// ErrNotFound is returned when a row does not exist or is owned by
// someone else.
var ErrNotFound = errors.New("expenses: not found")

// Store is the persistence contract consumed by the conversational engine.
// Every operation is scoped by the resolved owner id, never by anything
// taken from free text.
type Store interface {
	Insert(ctx context.Context, e *Expense) error
	Update(ctx context.Context, id, owner string, fields UpdateFields) (*Expense, error)
	Delete(ctx context.Context, id, owner string) error
	ListPage(ctx context.Context, owner string, offset, limit int) ([]Expense, error)
	ListRange(ctx context.Context, owner string, start, end time.Time) ([]Expense, error)
}

// Users resolves a channel-native phone number to a registered user id.
type Users interface {
	UserIDByPhone(ctx context.Context, phone string) (string, error)
}

// PostgresStore implements Store and Users on top of a Postgres pool.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps the given pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert persists a new expense. The id is generated here; created_at is
// assigned by the database and written back into e.
func (s *PostgresStore) Insert(ctx context.Context, e *Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO expenses (id, user_id, amount, currency, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := s.db.QueryRowxContext(ctx, q, e.ID, e.UserID, e.Amount, e.Currency, e.Category).
		Scan(&e.CreatedAt)
	if err != nil {
		s.logErr(ctx, "insert", err)
		return fmt.Errorf("insert expense: %w", err)
	}
	logger.LogEvent(ctx, logger.STORE, slog.LevelDebug, "expense.insert",
		slog.String("status", "ok"),
		slog.String("expense_id", e.ID),
		slog.String("category", e.Category),
	)
	return nil
}

// Update applies the non-nil fields to an owner's expense and returns the
// updated row.
func (s *PostgresStore) Update(ctx context.Context, id, owner string, fields UpdateFields) (*Expense, error) {
	set := make([]string, 0, 3)
	args := make([]any, 0, 5)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if fields.Amount != nil {
		add("amount", *fields.Amount)
	}
	if fields.Currency != nil {
		add("currency", *fields.Currency)
	}
	if fields.Category != nil {
		add("category", *fields.Category)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("update expense: no fields to update")
	}
	args = append(args, id, owner)
	q := fmt.Sprintf(`
		UPDATE expenses SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, amount, currency, category, created_at`,
		strings.Join(set, ", "), len(args)-1, len(args))

	var out Expense
	if err := s.db.GetContext(ctx, &out, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logErr(ctx, "update", err)
		return nil, fmt.Errorf("update expense: %w", err)
	}
	logger.LogEvent(ctx, logger.STORE, slog.LevelDebug, "expense.update",
		slog.String("status", "ok"),
		slog.String("expense_id", out.ID),
	)
	return &out, nil
}

// Delete removes an owner's expense. Deleting someone else's expense, or a
// missing one, yields ErrNotFound.
func (s *PostgresStore) Delete(ctx context.Context, id, owner string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		s.logErr(ctx, "delete", err)
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	logger.LogEvent(ctx, logger.STORE, slog.LevelDebug, "expense.delete",
		slog.String("status", "ok"),
		slog.String("expense_id", id),
	)
	return nil
}

// ListPage returns one page of the owner's expenses, newest first.
func (s *PostgresStore) ListPage(ctx context.Context, owner string, offset, limit int) ([]Expense, error) {
	var out []Expense
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, user_id, amount, currency, category, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, owner, limit, offset)
	if err != nil {
		s.logErr(ctx, "list_page", err)
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// ListRange returns the owner's expenses created within [start, end),
// oldest first so analytics folds are stable.
func (s *PostgresStore) ListRange(ctx context.Context, owner string, start, end time.Time) ([]Expense, error) {
	var out []Expense
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, user_id, amount, currency, category, created_at
		FROM expenses
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC`, owner, start, end)
	if err != nil {
		s.logErr(ctx, "list_range", err)
		return nil, fmt.Errorf("list expenses by range: %w", err)
	}
	return out, nil
}

// UserIDByPhone resolves the registered user owning the given phone number.
func (s *PostgresStore) UserIDByPhone(ctx context.Context, phone string) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id,
		`SELECT id FROM profiles WHERE telefono = $1`, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		s.logErr(ctx, "user_lookup", err)
		return "", fmt.Errorf("lookup user by phone: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) logErr(ctx context.Context, op string, err error) {
	logger.LogEvent(ctx, logger.STORE, slog.LevelError, "store.failed",
		slog.String("status", "fail"),
		slog.String("operation", op),
		slog.String("err", err.Error()),
	)
}
