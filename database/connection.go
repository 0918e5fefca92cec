package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State is where a connection is in its lifecycle. Closed is reachable from
// every other state.
type State int

const (
	StateIdle State = iota
	StateConnected
	StatePrepared
	StateExecuted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StatePrepared:
		return "prepared"
	case StateExecuted:
		return "executed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Conn is a single pinned connection to one database. It is not shared
// between operations and must be closed by whoever opened it.
type Conn struct {
	dialect Dialect
	db      *sql.DB
	conn    *sql.Conn
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// ConnectionManager opens connections. The zero value logs to slog.Default().
type ConnectionManager struct {
	Logger *slog.Logger
}

func (m ConnectionManager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Open connects and authenticates. It fails with a connection error if the
// server is unreachable or rejects the credentials; nothing is left open on
// failure.
func (m ConnectionManager) Open(ctx context.Context, cfg ConnectionConfig) (*Conn, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, newConnectionError("open", err)
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, newConnectionError("open", err)
	}

	sqlDB, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, newConnectionError("open", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, newConnectionError("ping", err)
	}

	c, err := newConn(ctx, sqlDB, dialect, m.logger().With("database", cfg.String()))
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return c, nil
}

// WithConn opens a connection, hands it to fn and closes it on every exit
// path, including a panic in fn.
func (m ConnectionManager) WithConn(ctx context.Context, cfg ConnectionConfig, fn func(*Conn) error) (err error) {
	c, err := m.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// Open is ConnectionManager{}.Open.
func Open(ctx context.Context, cfg ConnectionConfig) (*Conn, error) {
	return ConnectionManager{}.Open(ctx, cfg)
}

// WithConn is ConnectionManager{}.WithConn.
func WithConn(ctx context.Context, cfg ConnectionConfig, fn func(*Conn) error) error {
	return ConnectionManager{}.WithConn(ctx, cfg, fn)
}

func newConn(ctx context.Context, sqlDB *sql.DB, dialect Dialect, logger *slog.Logger) (*Conn, error) {
	pinned, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, newConnectionError("acquire", err)
	}
	c := &Conn{
		dialect: dialect,
		db:      sqlDB,
		conn:    pinned,
		logger:  logger,
	}
	c.setState(StateConnected)
	return c, nil
}

// Dialect returns the SQL dialect of the connected database.
func (c *Conn) Dialect() Dialect {
	return c.dialect
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		c.logger.Debug("connection state", "from", prev.String(), "to", s.String())
	}
}

// Close releases the pinned connection and its pool. Calling it again is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	connErr := c.conn.Close()
	dbErr := c.db.Close()
	c.setState(StateClosed)

	if err := errors.Join(connErr, dbErr); err != nil {
		return newConnectionError("close", err)
	}
	return nil
}

// classify wraps a statement failure: a dead or cancelled connection is a
// connection error, anything the server rejected is a query error.
func classify(op, table string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return newConnectionError(op, err)
	}
	return newQueryError(op, table, err)
}
