package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout is the storage format of date columns. It sorts lexically.
const timeLayout = "2006-01-02 15:04:05"

const selectColumns = `SELECT id, user_id, date, type, amount_cents, category, description, created_at FROM transactions `

var dialect = store.Dialect{
	Placeholder: store.QuestionMark,
	Time:        func(t time.Time) any { return t.Format(timeLayout) },
	Amount: func(d decimal.Decimal, lower bool) any {
		cents := d.Shift(2)
		if lower {
			return cents.Ceil().IntPart()
		}
		return cents.Floor().IntPart()
	},
	AmountColumn: "amount_cents",
	TieBreak:     "rowid",
}

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness check.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert implements store.Writer
func (r *Repository) Insert(ctx context.Context, userID string, n core.NewTransaction) (core.Transaction, error) {
	n, err := n.Normalize()
	if err != nil {
		return core.Transaction{}, err
	}
	t := n.Transaction(uuid.NewString(), userID, r.now().UTC().Truncate(time.Second))

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, date, type, amount_cents, category, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Date.Format(timeLayout), string(t.Type), toCents(t.Amount),
		t.Category, t.Description, t.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"category", t.Category)

	// Read back with storage precision so callers see what a later query returns
	t.Date, _ = time.Parse(timeLayout, t.Date.Format(timeLayout))
	return t, nil
}

// Query implements store.Reader
func (r *Repository) Query(ctx context.Context, q store.Query) ([]core.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	clause, args := dialect.Where(q)
	return r.scan(ctx, selectColumns+clause, args...)
}

// List implements store.Reader
func (r *Repository) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	return r.scan(ctx, selectColumns+`WHERE user_id = ? ORDER BY date ASC, rowid ASC`, userID)
}

func (r *Repository) scan(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t               core.Transaction
			kind            string
			cents           int64
			date, createdAt string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &date, &kind, &cents, &t.Category, &t.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = time.Parse(timeLayout, date); err != nil {
			return nil, fmt.Errorf("parse date of %s: %w", t.ID, err)
		}
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", t.ID, err)
		}
		t.Type = core.Kind(kind)
		t.Amount = decimal.New(cents, -2)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
