package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestFindConfigFileWalksUp(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, WriteConfig(filepath.Join(root, ConfigFileName), &Config{StoragePath: "store"}))
	chdir(t, nested)

	path, err := FindConfigFile()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(root, ConfigFileName))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFileGlobalFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	global := filepath.Join(home, DefaultStorage, "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(global), 0755))
	require.NoError(t, WriteConfig(global, &Config{StoragePath: "/srv/dumps"}))
	chdir(t, t.TempDir())

	path, err := FindConfigFile()
	require.NoError(t, err)
	assert.Equal(t, global, path)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)

	config, root, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{StoragePath: DefaultStorage, Prefix: DefaultPrefix}, config)
	assert.NotEmpty(t, root)
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"storage_path: backups",
		"db_url: mysql://root@localhost/shop",
		"tables:",
		"  - users",
		"  - orders",
	}, "\n")), 0644))

	config, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		StoragePath: "backups",
		Prefix:      DefaultPrefix,
		DatabaseURL: "mysql://root@localhost/shop",
		Tables:      []string{"users", "orders"},
	}, config)

	require.NoError(t, os.WriteFile(path, []byte("storage_path: [unclosed"), 0644))
	_, err = ReadConfig(path)
	assert.Error(t, err)
}

func TestGetDumpPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", ".dumpmancer", "dumps", "shop"), GetDumpPath("/proj", ".dumpmancer", "shop"))
	assert.Equal(t, filepath.Join("/srv", "dumps", "shop"), GetDumpPath("/proj", "/srv", "shop"))
	assert.Equal(t, filepath.Join("/proj", ".dumpmancer", "dumps"), GetDumpsRoot("/proj", ".dumpmancer"))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(strings.NewReader("y\n"), &out, "Replace?"))
	assert.Equal(t, "Replace? (y/N): ", out.String())
	assert.True(t, Confirm(strings.NewReader(" YES \n"), &out, "Replace?"))
	assert.False(t, Confirm(strings.NewReader("\n"), &out, "Replace?"))
	assert.False(t, Confirm(strings.NewReader(""), &out, "Replace?"))
}
