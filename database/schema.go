package db

import (
	"context"
	"database/sql"
	"log/slog"
)

// TableDescriptor holds the statement that recreates a table, empty, with the
// same structure.
type TableDescriptor struct {
	Name   string `json:"name"`
	Create string `json:"create"`
	// OverrideIdentity is set when the table has GENERATED ALWAYS identity
	// columns, whose stored values only replay with OVERRIDING SYSTEM VALUE.
	OverrideIdentity bool `json:"overrideIdentity,omitempty"`
}

// Column is a result column as reported by the driver while reading rows.
type Column struct {
	Name         string    `json:"name"`
	DatabaseType string    `json:"databaseType"`
	Kind         ValueKind `json:"kind"`
}

// Inspector enumerates and describes tables.
type Inspector struct {
	Logger *slog.Logger
}

func (i Inspector) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}

// ListTables returns every base table in the database's own enumeration order
// when filter is empty. Otherwise it returns filter unchanged, after checking
// that each name exists and appears once.
func (i Inspector) ListTables(ctx context.Context, c *Conn, filter []string) ([]string, error) {
	tables, err := c.dialect.listTables(ctx, c.conn)
	if err != nil {
		return nil, classify("list tables", "", err)
	}
	if len(filter) == 0 {
		i.logger().Debug("listed tables", "count", len(tables))
		return tables, nil
	}

	existing := make(map[string]bool, len(tables))
	for _, t := range tables {
		existing[t] = true
	}
	seen := make(map[string]bool, len(filter))
	resolved := make([]string, 0, len(filter))
	for _, name := range filter {
		if !existing[name] {
			return nil, newSchemaError("list tables", name, "table does not exist", nil)
		}
		if seen[name] {
			return nil, newSchemaError("list tables", name, "table requested more than once", nil)
		}
		seen[name] = true
		resolved = append(resolved, name)
	}
	return resolved, nil
}

// Describe fetches the reconstruction statement of a table. A table dropped
// since it was listed yields a schema error; there is no retry.
func (i Inspector) Describe(ctx context.Context, c *Conn, table string) (TableDescriptor, error) {
	desc, err := c.dialect.describe(ctx, c.conn, table)
	if err != nil {
		return TableDescriptor{}, classify("describe", table, err)
	}
	return desc, nil
}

// readColumns classifies the columns of a result set with the dialect.
func readColumns(dialect Dialect, rows *sql.Rows) ([]Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(types))
	for i, t := range types {
		cols[i] = Column{
			Name:         t.Name(),
			DatabaseType: t.DatabaseTypeName(),
			Kind:         dialect.ValueKind(t.DatabaseTypeName()),
		}
	}
	return cols, nil
}
