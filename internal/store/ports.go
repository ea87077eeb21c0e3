// Package store defines the port between the HTTP layer and the storage
// backends (SQLite, Postgres, in-memory).
package store

import (
	"context"
	"errors"

	"expenses/internal/core"
)

// ErrNotFound is returned when an expense id does not exist.
var ErrNotFound = errors.New("expense not found")

// Order fixes the deterministic listing order.
type Order int

const (
	// NewestFirst orders by date descending, id descending (list view).
	NewestFirst Order = iota
	// OldestFirst orders by date ascending, id ascending (CSV export).
	OldestFirst
)

// Store is the durable id-to-Expense mapping. Ids are assigned by the store,
// monotonic, and never reused after deletion. Each operation is
// independently atomic; there are no multi-operation transactions.
type Store interface {
	// Create persists a new expense and returns its assigned id.
	Create(ctx context.Context, e core.Expense) (int64, error)

	// Get returns the expense with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (core.Expense, error)

	// Update replaces all fields of an existing expense, or ErrNotFound.
	Update(ctx context.Context, id int64, e core.Expense) error

	// Delete removes an expense permanently, or ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// List returns the expenses matching f in the requested order.
	List(ctx context.Context, f core.Filter, order Order) ([]core.Expense, error)

	// SumByCategory returns per-category totals for the filtered set.
	// Categories without matching expenses are omitted.
	SumByCategory(ctx context.Context, f core.Filter) ([]core.CategoryAmount, error)

	// SumByDay returns per-date totals for the filtered set, dates ascending.
	SumByDay(ctx context.Context, f core.Filter) ([]core.DayAmount, error)

	// Close releases backend resources.
	Close() error
}
