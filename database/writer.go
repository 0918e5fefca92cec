package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// DefaultExt is the extension of dump artifacts.
const DefaultExt = "sql"

// ArtifactName derives <prefix>-<unix timestamp>-<fingerprint>.<ext>.
func ArtifactName(prefix string, ts time.Time, fingerprint, ext string) string {
	if ext == "" {
		ext = DefaultExt
	}
	return fmt.Sprintf("%s-%d-%s.%s", prefix, ts.Unix(), fingerprint, ext)
}

// Artifact is the parsed form of an artifact file name.
type Artifact struct {
	Prefix      string
	Timestamp   time.Time
	Fingerprint string
	Ext         string
}

// ParseArtifactName reverses ArtifactName. The prefix may itself contain dashes.
func ParseArtifactName(name string) (Artifact, bool) {
	ext := filepath.Ext(name)
	if ext == "" {
		return Artifact{}, false
	}
	parts := strings.Split(strings.TrimSuffix(name, ext), "-")
	if len(parts) < 3 {
		return Artifact{}, false
	}
	fingerprint := parts[len(parts)-1]
	unix, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil || fingerprint == "" {
		return Artifact{}, false
	}
	return Artifact{
		Prefix:      strings.Join(parts[:len(parts)-2], "-"),
		Timestamp:   time.Unix(unix, 0),
		Fingerprint: fingerprint,
		Ext:         strings.TrimPrefix(ext, "."),
	}, true
}

// Write materializes doc next to path and promotes it only once it is fully
// written and synced. Without overwrite an existing destination is an error
// and is left untouched. On failure nothing is left at path.
func Write(doc *Document, path string, overwrite bool) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return newIOError("create temp file", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = doc.WriteTo(tmp); err != nil {
		return newIOError("write", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return newIOError("sync", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return newIOError("close", tmpPath, err)
	}

	if overwrite {
		if err = os.Rename(tmpPath, path); err != nil {
			return newIOError("rename", path, err)
		}
		return nil
	}

	if err = promote(tmpPath, path, os.Link); err != nil {
		return err
	}
	os.Remove(tmpPath)
	return nil
}

// promote publishes tmpPath at path without replacing an existing file. A
// hard link fails when path exists. Filesystems without hard links (FAT,
// some network mounts) get an O_EXCL reservation of path instead, which the
// rename then replaces. tmpPath is left for the caller to remove.
func promote(tmpPath, path string, link func(oldname, newname string) error) error {
	err := link(tmpPath, path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		return newIOError("promote", path, fmt.Errorf("destination already exists: %w", err))
	}
	if !errors.Is(err, errors.ErrUnsupported) && !errors.Is(err, syscall.EPERM) {
		return newIOError("promote", path, err)
	}

	placeholder, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return newIOError("promote", path, fmt.Errorf("destination already exists: %w", err))
		}
		return newIOError("promote", path, err)
	}
	placeholder.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(path)
		return newIOError("rename", path, err)
	}
	return nil
}

// WriteArtifact writes doc into dir under its derived artifact name and
// returns the final path.
func WriteArtifact(doc *Document, dir, prefix string, now time.Time, overwrite bool) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", newIOError("create output directory", dir, err)
	}
	path := filepath.Join(dir, ArtifactName(prefix, now, doc.Fingerprint(), DefaultExt))
	if err := Write(doc, path, overwrite); err != nil {
		return "", err
	}
	return path, nil
}
