package cmd

import (
	"testing"
	"time"

	db "github.com/KazanKK/dumpmancer/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	bindings, err := parseParams([]string{
		"int:42",
		"float:-1.25",
		"string:a:b:c",
		"s:",
		"blob:0x00ff",
		"i:NULL",
	})
	require.NoError(t, err)
	assert.Equal(t, []db.ParamBinding{
		db.Int(42),
		db.Float(-1.25),
		db.String("a:b:c"),
		db.String(""),
		db.Blob([]byte{0x00, 0xff}),
		db.Null(db.ParamInt),
	}, bindings)
}

func TestParseParamsErrors(t *testing.T) {
	for _, arg := range []string{"42", "date:2024-01-01", "int:4.2", "float:abc", "blob:zz"} {
		_, err := parseParams([]string{arg})
		assert.Error(t, err, arg)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "0x0aff", formatValue([]byte{0x0a, 0xff}))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "O'Brien", formatValue("O'Brien"))
	assert.Equal(t, "2024-01-02T03:04:05Z", formatValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestDumpName(t *testing.T) {
	assert.Equal(t, "shop", dumpName(db.ConnectionConfig{Driver: db.MySQL, Database: "shop"}))
	assert.Equal(t, "app", dumpName(db.ConnectionConfig{Driver: db.SQLite, Database: "/var/lib/app.db"}))
}
