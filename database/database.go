// Package db dumps relational databases (MySQL, PostgreSQL, SQLite) into
// replayable SQL scripts and runs parameterized statements against them.
package db

import (
	"context"
	"time"
)

// ExportOptions controls one export of one database.
type ExportOptions struct {
	Tables    []string // empty means every table
	Dir       string
	Prefix    string
	Overwrite bool
	Now       time.Time // artifact timestamp; zero means time.Now()
}

// ExportResult describes a written artifact.
type ExportResult struct {
	Path   string
	Tables []string
	Rows   int
}

// Exporter runs the full export: connect, dump, write, disconnect.
type Exporter struct {
	Connections ConnectionManager
	Dumper      Dumper
}

// Export dumps the database described by cfg and writes the artifact. The
// connection is released before the file is written; if anything fails no
// artifact appears in opts.Dir.
func (e Exporter) Export(ctx context.Context, cfg ConnectionConfig, opts ExportOptions) (ExportResult, error) {
	var doc *Document
	err := e.Connections.WithConn(ctx, cfg, func(c *Conn) error {
		var err error
		doc, err = e.Dumper.Dump(ctx, c, opts.Tables)
		return err
	})
	if err != nil {
		return ExportResult{}, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	path, err := WriteArtifact(doc, opts.Dir, opts.Prefix, now, opts.Overwrite)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Path: path, Tables: doc.Tables(), Rows: doc.Rows()}, nil
}
