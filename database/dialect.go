package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind is how a column's values are rendered into a dump.
type ValueKind int

const (
	// ValueDynamic means the kind is decided from the scanned Go value.
	ValueDynamic ValueKind = iota
	ValueText
	ValueInteger
	ValueDecimal
	ValueFloat
	ValueBool
	ValueBinary
	ValueTemporal
	ValueUnsupported
)

func (k ValueKind) String() string {
	switch k {
	case ValueDynamic:
		return "dynamic"
	case ValueText:
		return "text"
	case ValueInteger:
		return "integer"
	case ValueDecimal:
		return "decimal"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	case ValueBinary:
		return "binary"
	case ValueTemporal:
		return "temporal"
	case ValueUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

func (k ValueKind) numeric() bool {
	return k == ValueInteger || k == ValueDecimal || k == ValueFloat
}

// PlaceholderStyle is the positional parameter syntax of a dialect.
type PlaceholderStyle int

const (
	// PlaceholderQuestion is "?" (MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar is "$1", "$2", ... (Postgres).
	PlaceholderDollar
)

// querier is the subset of *sql.Conn the dialects need.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect holds everything that differs between the supported databases:
// identifier and literal syntax, value classification and the catalog
// queries used for introspection.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	// QuoteString renders s as a literal that parses back to exactly s.
	QuoteString(s string) (string, error)
	BinaryLiteral(b []byte) string
	BoolLiteral(b bool) string
	// FloatLiteral renders a float of the given bit size, including NaN and
	// the infinities where the database can store them.
	FloatLiteral(f float64, bits int) (string, error)
	TimeLayout() string
	// ValueKind classifies a driver-reported column type name.
	ValueKind(databaseType string) ValueKind
	DropTable(name string) string
	Placeholders() PlaceholderStyle
	BackslashEscapes() bool

	listTables(ctx context.Context, q querier) ([]string, error)
	describe(ctx context.Context, q querier, table string) (TableDescriptor, error)
	selectRows(ctx context.Context, q querier, table string) (string, error)
	size(ctx context.Context, q querier) (Size, error)
}

// DialectFor returns the dialect registered for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case MySQL:
		return mysqlDialect{}, nil
	case Postgres, "postgresql":
		return postgresDialect{}, nil
	case SQLite, "sqlite3":
		return sqliteDialect{}, nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", driver)
}

// formatFloat renders a finite float so that it reads back as a float: an
// integral value keeps a trailing ".0" instead of turning into an integer.
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// selectAll is the row query for dialects whose drivers report values
// independent of the declared column type.
func selectAll(d Dialect, table string) string {
	return "SELECT * FROM " + d.QuoteIdent(table)
}

// spliceControls quotes s with quote(), breaking out the bytes listed in
// controls as separately rendered expressions joined with join. Only ASCII
// controls are looked up, so multi-byte and invalid UTF-8 pass through intact.
func spliceControls(s string, controls map[byte]string, quote func(string) string, join string) string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		expr, ok := controls[s[i]]
		if !ok {
			continue
		}
		if i > start {
			parts = append(parts, quote(s[start:i]))
		}
		parts = append(parts, expr)
		start = i + 1
	}
	if start < len(s) {
		parts = append(parts, quote(s[start:]))
	}
	if len(parts) == 0 {
		return quote("")
	}
	return strings.Join(parts, join)
}
