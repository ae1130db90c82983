// Package store defines the transaction store boundary and the SQL query
// builder shared by the database-backed implementations.
package store

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

// Ports for transaction storage.
type (
	Reader interface {
		// Query returns the user's transactions matching q.Criteria, ordered by q.Sort.
		Query(ctx context.Context, q Query) ([]core.Transaction, error)
		// List returns every transaction of the user, oldest first.
		List(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	Writer interface {
		// Insert normalizes n, stores it and returns the new record.
		Insert(ctx context.Context, userID string, n core.NewTransaction) (core.Transaction, error)
	}

	ReadWriter interface {
		Reader
		Writer
	}

	Query struct {
		UserID   string
		Criteria core.Criteria
		Sort     core.SortSpec
	}
)

// Validate checks the query and fills in the default sort.
func (q *Query) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return core.Invalid("user_id", "user is required")
	}
	if err := q.Criteria.Validate(); err != nil {
		return err
	}
	if q.Sort == (core.SortSpec{}) {
		q.Sort = core.DefaultSort
	}
	return q.Sort.Validate()
}
