package db

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockConn pins a connection on a sqlmock database. The connection is
// closed when the test ends.
func newMockConn(t *testing.T, d Dialect) (*Conn, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	c, err := newConn(context.Background(), sqlDB, d, discardLogger())
	require.NoError(t, err)

	t.Cleanup(func() {
		mock.ExpectClose()
		_ = c.Close()
	})
	return c, mock
}

// newSQLiteDB creates a database file, runs the setup statements on it and
// returns the config pointing at it.
func newSQLiteDB(t *testing.T, setup ...string) ConnectionConfig {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, stmt := range setup {
		_, err := sqlDB.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return ConnectionConfig{Driver: SQLite, Database: path}
}

func openSQLite(t *testing.T, cfg ConnectionConfig) *Conn {
	t.Helper()

	c, err := ConnectionManager{Logger: discardLogger()}.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// queryAll returns every row of query rendered as strings, for comparing
// table contents between databases.
func queryAll(t *testing.T, path, query string) [][]any {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer sqlDB.Close()

	rows, err := sqlDB.Query(query)
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		out = append(out, values)
	}
	require.NoError(t, rows.Err())
	return out
}

// storedRows renders every row of table as "typeof:quote" per column, so
// two databases compare equal only when values and storage classes match
// exactly, without the driver's time parsing in between.
func storedRows(t *testing.T, path, table string) []string {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer sqlDB.Close()

	names, err := sqlDB.Query("SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	require.NoError(t, err)
	var exprs []string
	for names.Next() {
		var name string
		require.NoError(t, names.Scan(&name))
		col := sqliteDialect{}.QuoteIdent(name)
		exprs = append(exprs, "typeof("+col+")||':'||quote("+col+")")
	}
	require.NoError(t, names.Err())
	require.NoError(t, names.Close())
	require.NotEmpty(t, exprs, table)

	rows, err := sqlDB.Query("SELECT " + strings.Join(exprs, "||'|'||") + " FROM " + sqliteDialect{}.QuoteIdent(table))
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var row string
		require.NoError(t, rows.Scan(&row))
		out = append(out, row)
	}
	require.NoError(t, rows.Err())
	return out
}
