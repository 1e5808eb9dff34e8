// Package store provides the SQL persistence layer for the sandwich service.
//
// A Table is a single-table query surface parameterized by a Schema. Queries
// are built with Masterminds/squirrel and run against PostgreSQL ($1
// placeholders) or SQLite (? placeholders). Every mutating call is a single
// autocommitted statement, so it is durable once the call returns.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect selects the SQL flavour of the backing database.
type Dialect string

const (
	// DialectPostgres targets PostgreSQL through lib/pq.
	DialectPostgres Dialect = "postgres"
	// DialectSQLite targets SQLite through modernc.org/sqlite.
	DialectSQLite Dialect = "sqlite"
)

// ParseDialect validates a configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case DialectPostgres, DialectSQLite:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Dialect) placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Schema describes how one entity type maps onto its table.
type Schema[E any] struct {
	// Table is the table name.
	Table string
	// Columns lists the non-id columns in insert and select order.
	Columns []string
	// Values returns the entity's values in Columns order.
	Values func(E) []any
	// Scan reads "id" followed by Columns.
	Scan func(Scanner) (E, error)
}

func (s Schema[E]) selectColumns() []string {
	return append([]string{"id"}, s.Columns...)
}

// Table runs CRUD statements against a single table.
type Table[E any] struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	schema Schema[E]
}

// NewTable binds a schema to a database handle.
func NewTable[E any](db *sql.DB, dialect Dialect, schema Schema[E]) *Table[E] {
	return &Table[E]{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
		schema: schema,
	}
}

// Name returns the table name.
func (t *Table[E]) Name() string {
	return t.schema.Table
}

// Insert stores a new row and returns it as persisted, including the
// database-assigned id.
func (t *Table[E]) Insert(ctx context.Context, e E) (E, error) {
	var zero E

	query := t.sb.
		Insert(t.schema.Table).
		Columns(t.schema.Columns...).
		Values(t.schema.Values(e)...).
		Suffix("RETURNING " + strings.Join(t.schema.selectColumns(), ", "))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return zero, fmt.Errorf("building insert query: %w", err)
	}

	created, err := t.schema.Scan(t.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return zero, fmt.Errorf("inserting into %s: %w", t.schema.Table, err)
	}
	return created, nil
}

// FindByID loads one row. The boolean is false when no row has the id.
func (t *Table[E]) FindByID(ctx context.Context, id int64) (E, bool, error) {
	var zero E

	query := t.sb.
		Select(t.schema.selectColumns()...).
		From(t.schema.Table).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return zero, false, fmt.Errorf("building query: %w", err)
	}

	e, err := t.schema.Scan(t.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("querying %s %d: %w", t.schema.Table, id, err)
	}
	return e, true, nil
}

// FindAll loads every row ordered by id. It never returns a nil slice.
func (t *Table[E]) FindAll(ctx context.Context) ([]E, error) {
	query := t.sb.
		Select(t.schema.selectColumns()...).
		From(t.schema.Table).
		OrderBy("id")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := t.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	items := []E{}
	for rows.Next() {
		e, err := t.schema.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", t.schema.Table, err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", t.schema.Table, err)
	}
	return items, nil
}

// Patch overwrites the given columns of one row and returns the number of
// rows affected. With no changes nothing is written and the count reports
// whether the row exists.
func (t *Table[E]) Patch(ctx context.Context, id int64, changes map[string]any) (int64, error) {
	if len(changes) == 0 {
		return t.count(ctx, id)
	}

	query := t.sb.
		Update(t.schema.Table).
		SetMap(changes).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building update query: %w", err)
	}

	res, err := t.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("updating %s %d: %w", t.schema.Table, id, err)
	}
	return rowsAffected(res)
}

// Remove deletes one row and returns the number of rows affected.
func (t *Table[E]) Remove(ctx context.Context, id int64) (int64, error) {
	query := t.sb.
		Delete(t.schema.Table).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building delete query: %w", err)
	}

	res, err := t.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting %s %d: %w", t.schema.Table, id, err)
	}
	return rowsAffected(res)
}

func (t *Table[E]) count(ctx context.Context, id int64) (int64, error) {
	sqlStr, args, err := t.sb.
		Select("COUNT(*)").
		From(t.schema.Table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var n int64
	if err := t.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s %d: %w", t.schema.Table, id, err)
	}
	return n, nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
