package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountPlaceholders(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		dialect  Dialect
		query    string
		expected int
	}{
		{"none", mysqlDialect{}, "SELECT 1", 0},
		{"question marks", mysqlDialect{}, "UPDATE t SET a = ? WHERE id = ?", 2},
		{"quoted question mark", mysqlDialect{}, "SELECT * FROM t WHERE a = '?' AND b = ?", 1},
		{"escaped quote in mysql string", mysqlDialect{}, `SELECT 'it\'s ?', ?`, 1},
		{"identifiers and double quotes", mysqlDialect{}, "SELECT `a?`, \"?\" FROM t WHERE b = ?", 1},
		{"mysql comments", mysqlDialect{}, "SELECT ? -- ?\n# ?\n/* ? */ , ?", 2},
		{"sqlite doubled quote", sqliteDialect{}, "SELECT 'it''s ?', ?", 1},
		{"sqlite backslash is literal", sqliteDialect{}, `SELECT 'a\', ?`, 1},
		{"dollar placeholders", postgresDialect{}, "SELECT $1, $2 WHERE x = $1", 2},
		{"dollar in string", postgresDialect{}, "SELECT '$3', $1", 1},
		{"dollar quoted body", postgresDialect{}, "SELECT $fn$ $2 ? $fn$, $1", 1},
		{"postgres escape string", postgresDialect{}, `SELECT E'it\'s $2', $1`, 1},
		{"question mark is not a postgres placeholder", postgresDialect{}, "SELECT data ? 'key' FROM t WHERE id = $1", 1},
		{"double digit", postgresDialect{}, "SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10", 10},
		{"sqlite numbered reuse", sqliteDialect{}, "SELECT ?1, ?1", 1},
		{"sqlite bare after numbered", sqliteDialect{}, "SELECT ?2, ?1, ?", 3},
		{"sqlite bare then numbered", sqliteDialect{}, "SELECT ?, ?1 WHERE x = ?", 2},
		{"mysql digits after question mark", mysqlDialect{}, "SELECT ?1, ?1", 2},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n, err := countPlaceholders(tc.dialect, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, n)
		})
	}
}

func TestCountPlaceholdersErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		dialect Dialect
		query   string
		index   int
	}{
		{"unterminated string", mysqlDialect{}, "SELECT '?", -1},
		{"unterminated comment", mysqlDialect{}, "SELECT ? /* ", -1},
		{"unterminated dollar quote", postgresDialect{}, "SELECT $x$ body", -1},
		{"gap in dollar placeholders", postgresDialect{}, "SELECT $2", 0},
		{"second slot missing", postgresDialect{}, "SELECT $1, $3", 1},
		{"dollar zero", postgresDialect{}, "SELECT $0", -1},
		{"dollar out of range", postgresDialect{}, "SELECT $99999999999999999999", -1},
		{"sqlite question zero", sqliteDialect{}, "SELECT ?0", -1},
		{"sqlite numbered gap", sqliteDialect{}, "SELECT ?2", 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := countPlaceholders(tc.dialect, tc.query)
			require.True(t, errors.Is(err, ErrBinding), "got %v", err)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.index, e.Index)
		})
	}
}
