package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Serializer renders rows as INSERT statements in one dialect.
type Serializer struct {
	Dialect Dialect
	// OverrideIdentity adds OVERRIDING SYSTEM VALUE so explicit values reach
	// GENERATED ALWAYS identity columns.
	OverrideIdentity bool
}

// SerializeRow renders one row as INSERT INTO <table> VALUES(...);. The row
// must hold exactly one value per column.
func (s Serializer) SerializeRow(table string, cols []Column, row []any) (string, error) {
	if len(row) != len(cols) {
		return "", newSerializationError(table, "", -1,
			fmt.Sprintf("row has %d values for %d columns", len(row), len(cols)))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.Dialect.QuoteIdent(table))
	if s.OverrideIdentity {
		b.WriteString(" OVERRIDING SYSTEM VALUE")
	}
	b.WriteString(" VALUES(")
	for i, v := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		lit, err := s.Literal(cols[i].Kind, v)
		if err != nil {
			return "", newSerializationError(table, cols[i].Name, i, err.Error())
		}
		b.WriteString(lit)
	}
	b.WriteString(");")
	return b.String(), nil
}

// Literal renders a single value of the given column kind.
func (s Serializer) Literal(kind ValueKind, v any) (string, error) {
	if kind == ValueUnsupported {
		return "", fmt.Errorf("column type is not supported by %s dumps", s.Dialect.Name())
	}
	if v == nil {
		return "NULL", nil
	}

	switch x := v.(type) {
	case []byte:
		if kind == ValueBinary || kind == ValueDynamic {
			return s.Dialect.BinaryLiteral(x), nil
		}
		return s.text(kind, string(x))
	case string:
		return s.text(kind, x)
	case bool:
		return s.Dialect.BoolLiteral(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case float64:
		return s.Dialect.FloatLiteral(x, 64)
	case float32:
		return s.Dialect.FloatLiteral(float64(x), 32)
	case time.Time:
		return s.Dialect.QuoteString(x.Format(s.Dialect.TimeLayout()))
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

// text renders driver text. Numeric columns are emitted bare only when the
// text is a plain decimal number; everything else is quoted.
func (s Serializer) text(kind ValueKind, v string) (string, error) {
	switch {
	case kind.numeric() && isPlainNumber(v):
		return v, nil
	case kind == ValueBool:
		if b, err := strconv.ParseBool(v); err == nil {
			return s.Dialect.BoolLiteral(b), nil
		}
	}
	return s.Dialect.QuoteString(v)
}

// isPlainNumber accepts an optional sign, digits and at most one decimal
// point, with at least one digit. Exponents and separators are rejected.
func isPlainNumber(v string) bool {
	if v == "" {
		return false
	}
	i := 0
	if v[0] == '-' || v[0] == '+' {
		i++
	}
	digits, dot := 0, false
	for ; i < len(v); i++ {
		switch c := v[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
