package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/model"
)

// Store groups the tables of the sandwich schema over one database handle.
type Store struct {
	db *sql.DB

	Orders       *Table[model.Order]
	OrderDetails *Table[model.OrderDetail]
	Sandwiches   *Table[model.Sandwich]
	Recipes      *Table[model.Recipe]
	Resources    *Table[model.Resource]
}

// New creates a Store for the given dialect.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:           db,
		Orders:       NewTable(db, dialect, OrderSchema),
		OrderDetails: NewTable(db, dialect, OrderDetailSchema),
		Sandwiches:   NewTable(db, dialect, SandwichSchema),
		Recipes:      NewTable(db, dialect, RecipeSchema),
		Resources:    NewTable(db, dialect, ResourceSchema),
	}
}

// Ping checks database connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// OrderSchema maps model.Order onto the orders table.
var OrderSchema = Schema[model.Order]{
	Table:   "orders",
	Columns: []string{"customer_name", "description", "order_date"},
	Values: func(m model.Order) []any {
		return []any{m.CustomerName, m.Description, m.OrderDate.UTC()}
	},
	Scan: func(row Scanner) (model.Order, error) {
		var m model.Order
		err := row.Scan(&m.ID, &m.CustomerName, &m.Description, timestamp{&m.OrderDate})
		return m, err
	},
}

// OrderDetailSchema maps model.OrderDetail onto the order_details table.
var OrderDetailSchema = Schema[model.OrderDetail]{
	Table:   "order_details",
	Columns: []string{"order_id", "sandwich_id", "amount"},
	Values: func(m model.OrderDetail) []any {
		return []any{m.OrderID, m.SandwichID, m.Amount}
	},
	Scan: func(row Scanner) (model.OrderDetail, error) {
		var m model.OrderDetail
		err := row.Scan(&m.ID, &m.OrderID, &m.SandwichID, &m.Amount)
		return m, err
	},
}

// SandwichSchema maps model.Sandwich onto the sandwiches table.
var SandwichSchema = Schema[model.Sandwich]{
	Table:   "sandwiches",
	Columns: []string{"name", "price", "description"},
	Values: func(m model.Sandwich) []any {
		return []any{m.Name, m.Price, m.Description}
	},
	Scan: func(row Scanner) (model.Sandwich, error) {
		var m model.Sandwich
		err := row.Scan(&m.ID, &m.Name, &m.Price, &m.Description)
		return m, err
	},
}

// RecipeSchema maps model.Recipe onto the recipes table.
var RecipeSchema = Schema[model.Recipe]{
	Table:   "recipes",
	Columns: []string{"sandwich_id", "resource_id", "amount"},
	Values: func(m model.Recipe) []any {
		return []any{m.SandwichID, m.ResourceID, m.Amount}
	},
	Scan: func(row Scanner) (model.Recipe, error) {
		var m model.Recipe
		err := row.Scan(&m.ID, &m.SandwichID, &m.ResourceID, &m.Amount)
		return m, err
	},
}

// ResourceSchema maps model.Resource onto the resources table.
var ResourceSchema = Schema[model.Resource]{
	Table:   "resources",
	Columns: []string{"item", "amount"},
	Values: func(m model.Resource) []any {
		return []any{m.Item, m.Amount}
	},
	Scan: func(row Scanner) (model.Resource, error) {
		var m model.Resource
		err := row.Scan(&m.ID, &m.Item, &m.Amount)
		return m, err
	},
}

// sqliteTimeLayouts are the text encodings SQLite drivers use for timestamps.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// timestamp scans a time column that may arrive as time.Time (PostgreSQL)
// or as text (SQLite without a declared column type).
type timestamp struct {
	t *time.Time
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		*ts.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (ts timestamp) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*ts.t = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as timestamp", s)
}
