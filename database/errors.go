package db

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure of the dump engine or the command executor.
type Kind string

const (
	KindConnection    Kind = "connection"
	KindSchema        Kind = "schema"
	KindSerialization Kind = "serialization"
	KindBinding       Kind = "binding"
	KindIO            Kind = "io"
	KindQuery         Kind = "query"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrConnection    = errors.New("connection error")
	ErrSchema        = errors.New("schema error")
	ErrSerialization = errors.New("serialization error")
	ErrBinding       = errors.New("binding error")
	ErrIO            = errors.New("io error")
	ErrQuery         = errors.New("query error")
)

// Error carries the failure kind plus whatever location information is known
// (table, column, placeholder or column index). Index is -1 when unused.
type Error struct {
	Kind   Kind
	Op     string // operation that failed, e.g. "describe", "bind"
	Table  string
	Column string
	Index  int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	var parts []string

	head := string(e.Kind) + " error"
	if e.Op != "" {
		head += " during " + e.Op
	}
	parts = append(parts, head)

	switch {
	case e.Table != "" && e.Column != "":
		parts = append(parts, fmt.Sprintf("at %s.%s", e.Table, e.Column))
	case e.Table != "":
		parts = append(parts, "table "+e.Table)
	case e.Column != "":
		parts = append(parts, "column "+e.Column)
	}

	if e.Index >= 0 {
		parts = append(parts, fmt.Sprintf("index %d", e.Index))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, " - ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindSchema:
		return ErrSchema
	case KindSerialization:
		return ErrSerialization
	case KindBinding:
		return ErrBinding
	case KindIO:
		return ErrIO
	case KindQuery:
		return ErrQuery
	}
	return nil
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newConnectionError(op string, err error) *Error {
	return &Error{Kind: KindConnection, Op: op, Index: -1, Err: err}
}

func newSchemaError(op, table, reason string, err error) *Error {
	return &Error{Kind: KindSchema, Op: op, Table: table, Index: -1, Reason: reason, Err: err}
}

func newSerializationError(table, column string, index int, reason string) *Error {
	return &Error{
		Kind:   KindSerialization,
		Op:     "serialize",
		Table:  table,
		Column: column,
		Index:  index,
		Reason: reason,
	}
}

func newBindingError(index int, reason string) *Error {
	return &Error{Kind: KindBinding, Op: "bind", Index: index, Reason: reason}
}

func newIOError(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Index: -1, Reason: path, Err: err}
}

func newQueryError(op, table string, err error) *Error {
	return &Error{Kind: KindQuery, Op: op, Table: table, Index: -1, Err: err}
}
