// Package storage implements the SQL-backed expense store. One repository
// serves both supported engines: SQLite (modernc, pure Go) and Postgres
// (pgx through database/sql).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"expenses/internal/core"
	"expenses/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type Repository struct {
	db      *sql.DB
	dialect string
}

// NewSQLite opens (creating if needed) a SQLite database at dbPath and
// applies pending migrations.
func NewSQLite(dbPath string) (*Repository, error) {
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
	if err := runMigrations(DialectSQLite, "sqlite", dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: DialectSQLite}, nil
}

// NewPostgres connects to a Postgres database and applies pending migrations.
func NewPostgres(dsn string) (*Repository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(DialectPostgres, "pgx", dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: DialectPostgres}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	q := r.rebind(`INSERT INTO expenses (description, amount_cents, category, date) VALUES (?, ?, ?, ?) RETURNING id`)
	var id int64
	err := r.db.QueryRowContext(ctx, q, e.Description, e.Amount.Cents, e.Category, e.Date.ISO()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"date", e.Date.ISO())

	return id, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	q := r.rebind(`SELECT id, description, amount_cents, category, date FROM expenses WHERE id = ?`)
	e, err := scanExpense(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *Repository) Update(ctx context.Context, id int64, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	q := r.rebind(`UPDATE expenses SET description = ?, amount_cents = ?, category = ?, date = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, e.Description, e.Amount.Cents, e.Category, e.Date.ISO(), id)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	q := r.rebind(`DELETE FROM expenses WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

func (r *Repository) List(ctx context.Context, f core.Filter, order store.Order) ([]core.Expense, error) {
	where, args := filterWhere(f)
	orderBy := " ORDER BY date DESC, id DESC"
	if order == store.OldestFirst {
		orderBy = " ORDER BY date ASC, id ASC"
	}

	q := r.rebind(`SELECT id, description, amount_cents, category, date FROM expenses` + where + orderBy)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) SumByCategory(ctx context.Context, f core.Filter) ([]core.CategoryAmount, error) {
	where, args := filterWhere(f)
	q := r.rebind(`SELECT category, SUM(amount_cents) FROM expenses` + where + ` GROUP BY category ORDER BY category`)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("sum by category: %w", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	return out, nil
}

func (r *Repository) SumByDay(ctx context.Context, f core.Filter) ([]core.DayAmount, error) {
	where, args := filterWhere(f)
	q := r.rebind(`SELECT date, SUM(amount_cents) FROM expenses` + where + ` GROUP BY date ORDER BY date ASC`)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}
	defer rows.Close()

	var out []core.DayAmount
	for rows.Next() {
		var iso string
		var cents int64
		if err := rows.Scan(&iso, &cents); err != nil {
			return nil, fmt.Errorf("sum by day: %w", err)
		}
		d, err := core.ParseDate(iso)
		if err != nil {
			return nil, fmt.Errorf("sum by day: bad date %q: %w", iso, err)
		}
		out = append(out, core.DayAmount{Date: d, Amount: core.Money{Cents: cents}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}
	return out, nil
}

// filterWhere renders the active filter constraints as a WHERE clause.
// Dates compare as ISO text, which matches calendar order.
func filterWhere(f core.Filter) (string, []any) {
	var conds []string
	var args []any
	if !f.Start.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.Start.ISO())
	}
	if !f.End.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.End.ISO())
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rebind converts ? placeholders to $n for Postgres.
func (r *Repository) rebind(q string) string {
	if r.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, ch := range q {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var iso string
	if err := row.Scan(&e.ID, &e.Description, &e.Amount.Cents, &e.Category, &iso); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(iso)
	if err != nil {
		return core.Expense{}, fmt.Errorf("bad stored date %q: %w", iso, err)
	}
	e.Date = d
	return e, nil
}
