package db

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

type postgresDialect struct{}

func (postgresDialect) Name() string { return Postgres }

func (postgresDialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

var postgresEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// QuoteString renders an escape string constant (E'...'). Postgres text
// cannot hold NUL, so such values are rejected rather than truncated.
func (postgresDialect) QuoteString(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("text value contains a NUL byte")
	}
	return "E'" + postgresEscaper.Replace(s) + "'", nil
}

func (postgresDialect) BinaryLiteral(b []byte) string {
	return "decode('" + hex.EncodeToString(b) + "', 'hex')"
}

func (postgresDialect) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (postgresDialect) TimeLayout() string { return "2006-01-02 15:04:05.999999-07:00" }

func (postgresDialect) ValueKind(databaseType string) ValueKind {
	switch strings.ToUpper(databaseType) {
	case "":
		return ValueDynamic
	case "INT2", "INT4", "INT8", "OID":
		return ValueInteger
	case "NUMERIC":
		return ValueDecimal
	case "FLOAT4", "FLOAT8":
		return ValueFloat
	case "BOOL":
		return ValueBool
	case "BYTEA":
		return ValueBinary
	case "DATE", "TIME", "TIMETZ", "TIMESTAMP", "TIMESTAMPTZ":
		return ValueTemporal
	}
	return ValueText
}

func (d postgresDialect) DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(name) + ";"
}

func (postgresDialect) Placeholders() PlaceholderStyle { return PlaceholderDollar }

// BackslashEscapes is false: only E'' constants honour backslashes, and the
// placeholder scanner handles that prefix itself.
func (postgresDialect) BackslashEscapes() bool { return false }

func (postgresDialect) listTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	return tables, nil
}

// FloatLiteral quotes the special values float4 and float8 accept as input.
func (postgresDialect) FloatLiteral(f float64, bits int) (string, error) {
	switch {
	case math.IsNaN(f):
		return "'NaN'", nil
	case math.IsInf(f, 1):
		return "'Infinity'", nil
	case math.IsInf(f, -1):
		return "'-Infinity'", nil
	}
	return formatFloat(f, bits), nil
}

func (d postgresDialect) selectRows(_ context.Context, _ querier, table string) (string, error) {
	return selectAll(d, table), nil
}

type pgColumn struct {
	name         string
	dataType     string
	udtName      string
	maxLength    sql.NullInt64
	precision    sql.NullInt64
	scale        sql.NullInt64
	timePrec     sql.NullInt64
	nullable     bool
	defaultVal   sql.NullString
	identity     bool
	identityKind sql.NullString
}

// Types whose length lives in character_maximum_length.
var pgLengthTypes = map[string]string{
	"character varying": "varchar",
	"character":         "char",
	"bit":               "bit",
	"bit varying":       "varbit",
}

// typeSQL renders the column type the way it has to appear in CREATE TABLE.
// Integer columns fed by a sequence become serial types so the statement does
// not depend on a sequence that an empty database lacks.
func (c pgColumn) typeSQL() (string, bool) {
	if !c.identity && c.defaultVal.Valid && strings.HasPrefix(c.defaultVal.String, "nextval(") {
		switch c.dataType {
		case "smallint":
			return "smallserial", true
		case "integer":
			return "serial", true
		case "bigint":
			return "bigserial", true
		}
	}

	switch c.dataType {
	case "character varying", "character", "bit", "bit varying":
		name := pgLengthTypes[c.dataType]
		if c.maxLength.Valid {
			return name + "(" + strconv.FormatInt(c.maxLength.Int64, 10) + ")", false
		}
		return name, false
	case "numeric":
		if c.precision.Valid && c.scale.Valid {
			return fmt.Sprintf("numeric(%d,%d)", c.precision.Int64, c.scale.Int64), false
		}
		return "numeric", false
	case "timestamp without time zone", "timestamp with time zone",
		"time without time zone", "time with time zone":
		if c.timePrec.Valid {
			base, zone, _ := strings.Cut(c.dataType, " ")
			return fmt.Sprintf("%s(%d) %s", base, c.timePrec.Int64, zone), false
		}
	case "USER-DEFINED":
		return pq.QuoteIdentifier(c.udtName), false
	case "ARRAY":
		return strings.TrimPrefix(c.udtName, "_") + "[]", false
	}
	return c.dataType, false
}

// describe reconstructs CREATE TABLE from the catalog: columns, defaults,
// identity, NOT NULL, then primary key, unique and check constraints.
// Foreign keys are left out so tables replay in any order.
func (d postgresDialect) describe(ctx context.Context, q querier, table string) (TableDescriptor, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT column_name, data_type, udt_name, character_maximum_length,
			numeric_precision, numeric_scale, datetime_precision,
			is_nullable, column_default, is_identity, identity_generation
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		AND table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return TableDescriptor{}, fmt.Errorf("querying columns: %w", err)
	}

	var columns []pgColumn
	for rows.Next() {
		var c pgColumn
		var isNullable, isIdentity string
		if err := rows.Scan(&c.name, &c.dataType, &c.udtName, &c.maxLength,
			&c.precision, &c.scale, &c.timePrec,
			&isNullable, &c.defaultVal, &isIdentity, &c.identityKind); err != nil {
			rows.Close()
			return TableDescriptor{}, fmt.Errorf("scanning column info: %w", err)
		}
		c.nullable = isNullable == "YES"
		c.identity = isIdentity == "YES"
		columns = append(columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return TableDescriptor{}, fmt.Errorf("reading columns: %w", err)
	}
	if len(columns) == 0 {
		return TableDescriptor{}, newSchemaError("describe", table, "table does not exist", nil)
	}

	desc := TableDescriptor{Name: table}
	var defs []string
	for _, c := range columns {
		typ, serial := c.typeSQL()
		def := d.QuoteIdent(c.name) + " " + typ
		if c.identity {
			generation := strings.ToUpper(c.identityKind.String)
			if generation == "" {
				generation = "BY DEFAULT"
			}
			def += " GENERATED " + generation + " AS IDENTITY"
			if generation == "ALWAYS" {
				desc.OverrideIdentity = true
			}
		}
		if !c.nullable {
			def += " NOT NULL"
		}
		if c.defaultVal.Valid && !serial && !c.identity {
			def += " DEFAULT " + c.defaultVal.String
		}
		defs = append(defs, def)
	}

	constraints, err := d.constraints(ctx, q, table)
	if err != nil {
		return TableDescriptor{}, err
	}
	defs = append(defs, constraints...)

	desc.Create = fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.QuoteIdent(table), strings.Join(defs, ",\n  "))
	return desc, nil
}

// constraints renders primary key, unique and check constraints with the
// server's own pg_get_constraintdef, primary key first.
func (d postgresDialect) constraints(ctx context.Context, q querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT con.conname, pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = rel.relnamespace
		WHERE ns.nspname = current_schema()
		AND rel.relname = $1
		AND con.contype IN ('p', 'u', 'c')
		ORDER BY CASE con.contype WHEN 'p' THEN 0 WHEN 'u' THEN 1 ELSE 2 END, con.conname
	`, table)
	if err != nil {
		return nil, fmt.Errorf("querying constraints: %w", err)
	}
	defer rows.Close()

	var defs []string
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, fmt.Errorf("scanning constraint: %w", err)
		}
		defs = append(defs, "CONSTRAINT "+d.QuoteIdent(name)+" "+def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading constraints: %w", err)
	}
	return defs, nil
}

func (postgresDialect) size(ctx context.Context, q querier) (Size, error) {
	var s Size
	err := q.QueryRowContext(ctx, `
		SELECT pg_database_size(current_database()),
			(SELECT COUNT(*) FROM information_schema.tables
			 WHERE table_schema = current_schema() AND table_type = 'BASE TABLE')
	`).Scan(&s.Bytes, &s.Tables)
	return s, err
}
