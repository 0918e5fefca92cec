package db

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return SQLite }

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQLite string literals have no escape sequences, so line breaks and NUL
// are emitted as char() calls concatenated to the quoted runs around them.
var sqliteControls = map[byte]string{
	'\n': "char(10)",
	'\r': "char(13)",
	0:    "char(0)",
}

func (sqliteDialect) QuoteString(s string) (string, error) {
	return spliceControls(s, sqliteControls, func(run string) string {
		return "'" + strings.ReplaceAll(run, "'", "''") + "'"
	}, "||"), nil
}

func (sqliteDialect) BinaryLiteral(b []byte) string {
	return "X'" + hex.EncodeToString(b) + "'"
}

func (sqliteDialect) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FloatLiteral writes the infinities as out-of-range literals, which SQLite
// parses back to ±Inf. NaN is stored as NULL by SQLite, so it never comes
// back from a read.
func (sqliteDialect) FloatLiteral(f float64, bits int) (string, error) {
	switch {
	case math.IsInf(f, 1):
		return "9e999", nil
	case math.IsInf(f, -1):
		return "-9e999", nil
	case math.IsNaN(f):
		return "NULL", nil
	}
	return formatFloat(f, bits), nil
}

func (sqliteDialect) TimeLayout() string { return "2006-01-02 15:04:05.999999999-07:00" }

// ValueKind is always dynamic: SQLite stores values by storage class, not by
// the declared column type, so the scanned Go value decides.
func (sqliteDialect) ValueKind(string) ValueKind { return ValueDynamic }

func (d sqliteDialect) DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(name) + ";"
}

func (sqliteDialect) Placeholders() PlaceholderStyle { return PlaceholderQuestion }

func (sqliteDialect) BackslashEscapes() bool { return false }

func (sqliteDialect) listTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	return tables, nil
}

// selectRows reads every column through a unary plus. The value and its
// storage class are unchanged, but the result column loses its declared
// type, so the driver hands back DATE and DATETIME text as stored instead
// of parsing it into time.Time.
func (d sqliteDialect) selectRows(ctx context.Context, q querier, table string) (string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return "", fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var exprs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("scanning column name: %w", err)
		}
		exprs = append(exprs, "+"+d.QuoteIdent(name)+" AS "+d.QuoteIdent(name))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading columns: %w", err)
	}
	if len(exprs) == 0 {
		return "", newSchemaError("read rows", table, "table does not exist", nil)
	}
	return "SELECT " + strings.Join(exprs, ", ") + " FROM " + d.QuoteIdent(table), nil
}

func (d sqliteDialect) describe(ctx context.Context, q querier, table string) (TableDescriptor, error) {
	create, err := d.createStatement(ctx, q, table)
	if err != nil {
		return TableDescriptor{}, err
	}
	return TableDescriptor{Name: table, Create: create}, nil
}

func (sqliteDialect) createStatement(ctx context.Context, q querier, table string) (string, error) {
	var create sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&create)
	if errors.Is(err, sql.ErrNoRows) {
		return "", newSchemaError("describe", table, "table does not exist", err)
	}
	if err != nil {
		return "", err
	}
	if !create.Valid {
		return "", newSchemaError("describe", table, "table has no definition", nil)
	}
	return create.String, nil
}

func (sqliteDialect) size(ctx context.Context, q querier) (Size, error) {
	var s Size
	err := q.QueryRowContext(ctx, `
		SELECT p.page_count * s.page_size,
			(SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%')
		FROM pragma_page_count() p, pragma_page_size() s
	`).Scan(&s.Bytes, &s.Tables)
	return s, err
}
