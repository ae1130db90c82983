package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/feed"
	"fintrack/internal/store"

	_ "github.com/lib/pq"
)

const selectColumns = `SELECT id, user_id, date, type, amount, category, description, created_at FROM transactions `

var dialect = store.Dialect{
	Placeholder:  store.Dollar,
	Time:         func(t time.Time) any { return t },
	Amount:       func(d decimal.Decimal, _ bool) any { return d },
	AmountColumn: "amount",
	TieBreak:     "seq",
}

// AccountSettings mirrors the accounts table.
type AccountSettings = feed.Account

type Repository struct {
	db *sql.DB
}

func NewRepository(connStr string) (*Repository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(connStr); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert implements store.Writer. The notify trigger publishes the change.
func (r *Repository) Insert(ctx context.Context, userID string, n core.NewTransaction) (core.Transaction, error) {
	n, err := n.Normalize()
	if err != nil {
		return core.Transaction{}, err
	}

	query := `
		INSERT INTO transactions (id, user_id, date, type, amount, category, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, date, type, amount, category, description, created_at
	`
	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), userID, n.Date, string(n.Type), n.Amount, n.Category, n.Description,
	)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", t.ID,
		"user_id", t.UserID,
		"amount", t.Amount.String(),
		"category", t.Category)
	return t, nil
}

// Query implements store.Reader
func (r *Repository) Query(ctx context.Context, q store.Query) ([]core.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	clause, args := dialect.Where(q)
	return r.scanAll(ctx, selectColumns+clause, args...)
}

// List implements store.Reader
func (r *Repository) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	return r.scanAll(ctx, selectColumns+`WHERE user_id = $1 ORDER BY date ASC, seq ASC`, userID)
}

// UpdateAccount upserts the user's settings. The notify trigger reports
// which settings changed.
func (r *Repository) UpdateAccount(ctx context.Context, a AccountSettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, full_name, email_notifications, push_notifications, theme, language, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
		    full_name = EXCLUDED.full_name,
		    email_notifications = EXCLUDED.email_notifications,
		    push_notifications = EXCLUDED.push_notifications,
		    theme = EXCLUDED.theme,
		    language = EXCLUDED.language,
		    timezone = EXCLUDED.timezone,
		    updated_at = now()
	`, a.ID, a.FullName, a.EmailNotifications, a.PushNotifications, a.Theme, a.Language, a.Timezone)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		kind string
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Date, &kind, &t.Amount, &t.Category, &t.Description, &t.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.Kind(kind)
	return t, nil
}

func (r *Repository) scanAll(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
