package db

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TableBlock is the dump of one table: drop, create, then one insert per row
// in the order the rows were read.
type TableBlock struct {
	Table   string   `json:"table"`
	Drop    string   `json:"drop"`
	Create  string   `json:"create"`
	Inserts []string `json:"inserts"`
}

// Document is a replayable dump. Blocks are in the order tables were resolved.
type Document struct {
	Blocks []TableBlock `json:"blocks"`
}

// Tables returns the dumped table names in block order.
func (d *Document) Tables() []string {
	names := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		names[i] = b.Table
	}
	return names
}

// Rows is the total number of insert statements.
func (d *Document) Rows() int {
	n := 0
	for _, b := range d.Blocks {
		n += len(b.Inserts)
	}
	return n
}

// Fingerprint is the md5 of the comma-joined table list.
func (d *Document) Fingerprint() string {
	sum := md5.Sum([]byte(strings.Join(d.Tables(), ",")))
	return hex.EncodeToString(sum[:])
}

// Statements returns every statement of the document in replay order.
func (d *Document) Statements() []string {
	var out []string
	for _, b := range d.Blocks {
		out = append(out, b.Drop, withTerminator(b.Create))
		out = append(out, b.Inserts...)
	}
	return out
}

// WriteTo renders the document as a plain SQL script, one blank line between
// table blocks.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	for i, b := range d.Blocks {
		if i > 0 {
			cw.writeString("\n")
		}
		cw.writeString(b.Drop + "\n")
		cw.writeString(withTerminator(b.Create) + "\n")
		for _, ins := range b.Inserts {
			cw.writeString(ins + "\n")
		}
	}
	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

func withTerminator(stmt string) string {
	stmt = strings.TrimRight(stmt, " \t\r\n")
	if strings.HasSuffix(stmt, ";") {
		return stmt
	}
	return stmt + ";"
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) writeString(s string) {
	if c.err != nil {
		return
	}
	n, err := c.w.WriteString(s)
	c.n += int64(n)
	c.err = err
}

// Dumper builds documents from a live connection.
type Dumper struct {
	Logger *slog.Logger
}

func (d Dumper) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Dump resolves the table list (all tables when tables is empty) and dumps
// each one in order. The first failure aborts the whole dump.
func (d Dumper) Dump(ctx context.Context, c *Conn, tables []string) (*Document, error) {
	log := d.logger().With("run", uuid.NewString(), "dialect", c.dialect.Name())
	started := time.Now()

	inspector := Inspector{Logger: log}
	resolved, err := inspector.ListTables(ctx, c, tables)
	if err != nil {
		return nil, err
	}
	log.Info("dumping tables", "tables", len(resolved))

	doc := &Document{Blocks: make([]TableBlock, 0, len(resolved))}
	for _, table := range resolved {
		desc, err := inspector.Describe(ctx, c, table)
		if err != nil {
			return nil, err
		}
		block := TableBlock{
			Table:  table,
			Drop:   c.dialect.DropTable(table),
			Create: desc.Create,
		}
		ser := Serializer{Dialect: c.dialect, OverrideIdentity: desc.OverrideIdentity}
		block.Inserts, err = d.dumpRows(ctx, c, ser, table)
		if err != nil {
			return nil, err
		}
		log.Debug("dumped table", "table", table, "rows", len(block.Inserts))
		doc.Blocks = append(doc.Blocks, block)
	}

	log.Info("dump complete", "tables", len(doc.Blocks), "rows", doc.Rows(), "elapsed", time.Since(started))
	return doc, nil
}

func (d Dumper) dumpRows(ctx context.Context, c *Conn, ser Serializer, table string) ([]string, error) {
	query, err := c.dialect.selectRows(ctx, c.conn, table)
	if err != nil {
		return nil, classify("read rows", table, err)
	}
	c.setState(StatePrepared)
	rows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("read rows", table, err)
	}
	defer rows.Close()
	c.setState(StateExecuted)

	cols, err := readColumns(c.dialect, rows)
	if err != nil {
		return nil, classify("read rows", table, err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	inserts := []string{}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify("read rows", table, err)
		}
		stmt, err := ser.SerializeRow(table, cols, values)
		if err != nil {
			return nil, err
		}
		inserts = append(inserts, stmt)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read rows", table, err)
	}
	return inserts, nil
}
