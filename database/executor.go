package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ParamType tags a bound parameter with the type its placeholder expects.
type ParamType int

const (
	ParamInt ParamType = iota + 1
	ParamFloat
	ParamString
	ParamBlob
)

func (t ParamType) String() string {
	switch t {
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamString:
		return "string"
	case ParamBlob:
		return "blob"
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// ParseParamType accepts the names printed by ParamType.String.
func ParseParamType(name string) (ParamType, error) {
	switch name {
	case "int", "i":
		return ParamInt, nil
	case "float", "d":
		return ParamFloat, nil
	case "string", "s":
		return ParamString, nil
	case "blob", "b":
		return ParamBlob, nil
	}
	return 0, fmt.Errorf("unknown parameter type %q", name)
}

// ParamBinding is one positional parameter, passed by value.
type ParamBinding struct {
	Type  ParamType
	Value any
}

func Int(v int64) ParamBinding      { return ParamBinding{Type: ParamInt, Value: v} }
func Float(v float64) ParamBinding  { return ParamBinding{Type: ParamFloat, Value: v} }
func String(v string) ParamBinding  { return ParamBinding{Type: ParamString, Value: v} }
func Blob(v []byte) ParamBinding    { return ParamBinding{Type: ParamBlob, Value: v} }
func Null(t ParamType) ParamBinding { return ParamBinding{Type: t} }

// arg checks the value against the tag and returns the driver argument.
// A nil value binds SQL NULL for any tag.
func (p ParamBinding) arg() (any, error) {
	if p.Value == nil {
		return nil, nil
	}
	switch p.Type {
	case ParamInt:
		switch v := p.Value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		}
	case ParamFloat:
		switch v := p.Value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		}
	case ParamString:
		if v, ok := p.Value.(string); ok {
			return v, nil
		}
	case ParamBlob:
		if v, ok := p.Value.([]byte); ok {
			return v, nil
		}
	default:
		return nil, fmt.Errorf("unknown parameter type %d", int(p.Type))
	}
	return nil, fmt.Errorf("%T value does not match type %s", p.Value, p.Type)
}

// Mode selects the result shape of a statement.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// QuerySpec is a statement template with its ordered bindings.
type QuerySpec struct {
	Template string
	Bindings []ParamBinding
	Mode     Mode
}

// Result is either a RowSet (read) or a MutationResult (write).
type Result interface {
	Mode() Mode
}

// MutationResult reports the effect of a write. Zero affected rows is a
// successful outcome.
type MutationResult struct {
	AffectedRows int64
	LastInsertID int64
}

func (MutationResult) Mode() Mode { return ModeWrite }

// Field is one column of a row.
type Field struct {
	Column string
	Value  any
}

// Row maps column names to values, in result-column order.
type Row []Field

// Get returns the value of the first column with the given name.
func (r Row) Get(column string) (any, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// RowSet is the result of a read. No matching rows is an empty, non-nil set.
type RowSet []Row

func (RowSet) Mode() Mode { return ModeRead }

// Executor binds parameters, runs one statement and shapes its result.
type Executor struct {
	Logger *slog.Logger
	// Connections is used by Run to acquire a connection per call.
	Connections ConnectionManager
}

func (e Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Bind validates spec against the dialect's placeholders and returns the
// driver arguments. It never touches the database.
func Bind(d Dialect, spec QuerySpec) ([]any, error) {
	if spec.Template == "" {
		return nil, newBindingError(-1, "empty statement")
	}
	if spec.Mode != ModeRead && spec.Mode != ModeWrite {
		return nil, newBindingError(-1, fmt.Sprintf("unknown mode %d", int(spec.Mode)))
	}
	slots, err := countPlaceholders(d, spec.Template)
	if err != nil {
		return nil, err
	}
	if slots != len(spec.Bindings) {
		idx := slots
		if len(spec.Bindings) < slots {
			idx = len(spec.Bindings)
		}
		return nil, newBindingError(idx,
			fmt.Sprintf("statement has %d placeholders but %d bindings were given", slots, len(spec.Bindings)))
	}

	args := make([]any, len(spec.Bindings))
	for i, b := range spec.Bindings {
		a, err := b.arg()
		if err != nil {
			return nil, newBindingError(i, err.Error())
		}
		args[i] = a
	}
	return args, nil
}

// Execute runs spec on c. Binding problems are reported before anything is
// sent to the server; the caller keeps ownership of c.
func (e Executor) Execute(ctx context.Context, c *Conn, spec QuerySpec) (Result, error) {
	args, err := Bind(c.dialect, spec)
	if err != nil {
		return nil, err
	}

	stmt, err := c.conn.PrepareContext(ctx, spec.Template)
	if err != nil {
		return nil, classify("prepare", "", err)
	}
	defer stmt.Close()
	c.setState(StatePrepared)

	e.logger().Debug("executing statement", "mode", spec.Mode.String(), "bindings", len(args))

	if spec.Mode == ModeWrite {
		return e.write(ctx, c, stmt, args)
	}
	return e.read(ctx, c, stmt, args)
}

// Run acquires a connection for cfg, executes spec on it and releases the
// connection whatever the outcome.
func (e Executor) Run(ctx context.Context, cfg ConnectionConfig, spec QuerySpec) (Result, error) {
	var res Result
	err := e.Connections.WithConn(ctx, cfg, func(c *Conn) error {
		var err error
		res, err = e.Execute(ctx, c, spec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e Executor) write(ctx context.Context, c *Conn, stmt *sql.Stmt, args []any) (Result, error) {
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, classify("exec", "", err)
	}
	c.setState(StateExecuted)

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, classify("rows affected", "", err)
	}
	out := MutationResult{AffectedRows: affected}
	// Not every driver reports an insert id; its absence is not a failure.
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

func (e Executor) read(ctx context.Context, c *Conn, stmt *sql.Stmt, args []any) (Result, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, classify("query", "", err)
	}
	defer rows.Close()
	c.setState(StateExecuted)

	cols, err := readColumns(c.dialect, rows)
	if err != nil {
		return nil, classify("query", "", err)
	}

	set := RowSet{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify("scan", "", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			// drivers hand text back as bytes; only binary columns keep them
			if b, ok := v.([]byte); ok && col.Kind != ValueBinary && col.Kind != ValueDynamic {
				v = string(b)
			}
			row[i] = Field{Column: col.Name, Value: v}
		}
		set = append(set, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query", "", err)
	}
	return set, nil
}
