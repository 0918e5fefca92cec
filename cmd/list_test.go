package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	db "github.com/KazanKK/dumpmancer/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDumps(t *testing.T) {
	root := t.TempDir()
	older := db.ArtifactName("backup", time.Unix(1700000000, 0), "aaaa", "")
	newer := db.ArtifactName("backup", time.Unix(1700003600, 0), "bbbb", "")

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(root, "shop", older), "x"},
		{filepath.Join(root, "shop", newer), "xyz"},
		{filepath.Join(root, "shop", "notes.txt"), "skip"},
		{filepath.Join(root, "shop", "."+newer+".tmp-1"), "skip"},
		{filepath.Join(root, "crm", older), ""},
	}
	for _, f := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(f.path), 0755))
		require.NoError(t, os.WriteFile(f.path, []byte(f.content), 0644))
	}

	entries, err := findDumps(root, "shop")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer, entries[0].File)
	assert.EqualValues(t, 3, entries[0].Size)
	assert.Equal(t, "bbbb", entries[0].Artifact.Fingerprint)
	assert.Equal(t, older, entries[1].File)

	all, err := findDumps(root, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFindDumpsMissingRoot(t *testing.T) {
	entries, err := findDumps(filepath.Join(t.TempDir(), "nope"), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
