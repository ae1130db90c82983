package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	// AllKinds is the criteria wildcard for Type.
	AllKinds Kind = "all"
	// AllCategories is the criteria wildcard for Category.
	AllCategories = "all"
)

// MaxDescriptionLength bounds Transaction.Description.
const MaxDescriptionLength = 200

type (
	Kind string

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Date        time.Time       `json:"date"`
		Type        Kind            `json:"type"`
		Amount      decimal.Decimal `json:"amount"` // positive = inflow, negative = outflow
		Category    string          `json:"category"`
		Description string          `json:"description"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	// NewTransaction carries the fields a caller supplies on insert.
	NewTransaction struct {
		Type        Kind            `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
	}
)

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", Invalid("type", "must be income or expense")
	}
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Kind derives income/expense from the amount sign. The stored Type is only
// consulted for zero amounts, where the sign says nothing.
func (t Transaction) Kind() Kind {
	switch t.Amount.Sign() {
	case 1:
		return Income
	case -1:
		return Expense
	default:
		return t.Type
	}
}

// Magnitude returns |Amount|.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// Normalize validates the insert params and returns them with the amount
// rounded to cents and signed to match the type. Forms send expense
// magnitudes, so a positive expense is negated; a negative income is rejected.
func (n NewTransaction) Normalize() (NewTransaction, error) {
	if !n.Type.Valid() {
		return n, Invalid("type", "must be income or expense")
	}
	n.Amount = n.Amount.Round(2)
	if n.Amount.IsZero() {
		return n, Invalid("amount", "must not be zero")
	}
	if n.Type == Income && n.Amount.IsNegative() {
		return n, Invalid("amount", "income must be positive")
	}
	if n.Type == Expense && n.Amount.IsPositive() {
		n.Amount = n.Amount.Neg()
	}
	if n.Date.IsZero() {
		return n, Invalid("date", "date cannot be zero")
	}

	n.Category = strings.TrimSpace(n.Category)
	if n.Category == "" {
		return n, Invalid("category", "empty category")
	}
	n.Description = strings.TrimSpace(n.Description)
	if n.Description == "" {
		return n, Invalid("description", "empty description")
	}
	if len(n.Description) > MaxDescriptionLength {
		return n, Invalid("description", "description too long (max 200 characters)")
	}
	return n, nil
}

// Transaction materializes the params into a record.
func (n NewTransaction) Transaction(id, userID string, createdAt time.Time) Transaction {
	return Transaction{
		ID:          id,
		UserID:      userID,
		Date:        n.Date,
		Type:        n.Type,
		Amount:      n.Amount,
		Category:    n.Category,
		Description: n.Description,
		CreatedAt:   createdAt,
	}
}
