package db

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL error number for "Table doesn't exist".
const mysqlErrNoSuchTable = 1146

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return MySQL }

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\x00", `\0`,
	"\x1a", `\Z`,
)

func (mysqlDialect) QuoteString(s string) (string, error) {
	return "'" + mysqlEscaper.Replace(s) + "'", nil
}

func (mysqlDialect) BinaryLiteral(b []byte) string {
	return "X'" + hex.EncodeToString(b) + "'"
}

func (mysqlDialect) BoolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (mysqlDialect) TimeLayout() string { return "2006-01-02 15:04:05.999999" }

func (mysqlDialect) ValueKind(databaseType string) ValueKind {
	t := strings.ToUpper(strings.TrimSpace(databaseType))
	t = strings.TrimPrefix(t, "UNSIGNED ")
	switch t {
	case "":
		return ValueDynamic
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		return ValueInteger
	case "DECIMAL", "NUMERIC":
		return ValueDecimal
	case "FLOAT", "DOUBLE", "REAL":
		return ValueFloat
	case "BIT", "BINARY", "VARBINARY", "TINYBLOB", "BLOB", "MEDIUMBLOB", "LONGBLOB":
		return ValueBinary
	case "DATE", "DATETIME", "TIMESTAMP", "TIME":
		return ValueTemporal
	case "GEOMETRY", "POINT", "LINESTRING", "POLYGON", "MULTIPOINT",
		"MULTILINESTRING", "MULTIPOLYGON", "GEOMETRYCOLLECTION":
		return ValueUnsupported
	}
	return ValueText
}

func (d mysqlDialect) DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(name) + ";"
}

func (mysqlDialect) Placeholders() PlaceholderStyle { return PlaceholderQuestion }

func (mysqlDialect) BackslashEscapes() bool { return true }

func (mysqlDialect) listTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SHOW FULL TABLES")
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		if kind != "BASE TABLE" {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	return tables, nil
}

// FloatLiteral rejects NaN and the infinities: MySQL has no way to store them.
func (mysqlDialect) FloatLiteral(f float64, bits int) (string, error) {
	if !isFinite(f) {
		return "", fmt.Errorf("non-finite float %v cannot be stored by mysql", f)
	}
	return formatFloat(f, bits), nil
}

func (d mysqlDialect) selectRows(_ context.Context, _ querier, table string) (string, error) {
	return selectAll(d, table), nil
}

func (d mysqlDialect) describe(ctx context.Context, q querier, table string) (TableDescriptor, error) {
	create, err := d.createStatement(ctx, q, table)
	if err != nil {
		return TableDescriptor{}, err
	}
	return TableDescriptor{Name: table, Create: create}, nil
}

func (d mysqlDialect) createStatement(ctx context.Context, q querier, table string) (string, error) {
	var name, create string
	err := q.QueryRowContext(ctx, "SHOW CREATE TABLE "+d.QuoteIdent(table)).Scan(&name, &create)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrNoSuchTable {
			return "", newSchemaError("describe", table, "table does not exist", err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return "", newSchemaError("describe", table, "table does not exist", err)
		}
		return "", err
	}
	return create, nil
}

func (mysqlDialect) size(ctx context.Context, q querier) (Size, error) {
	var s Size
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(data_length + index_length), 0), COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		AND table_type = 'BASE TABLE'
	`).Scan(&s.Bytes, &s.Tables)
	return s, err
}
