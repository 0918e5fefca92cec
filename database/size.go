package db

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Size is the on-disk footprint of a database (data plus indexes where the
// server reports them separately).
type Size struct {
	Bytes  int64
	Tables int
}

func (s Size) String() string {
	if s.Bytes < 0 {
		return fmt.Sprintf("unknown (%d tables)", s.Tables)
	}
	return fmt.Sprintf("%s (%d tables)", humanize.IBytes(uint64(s.Bytes)), s.Tables)
}

// DatabaseSize asks the server how much space the connected database uses.
func DatabaseSize(ctx context.Context, c *Conn) (Size, error) {
	c.setState(StatePrepared)
	s, err := c.dialect.size(ctx, c.conn)
	if err != nil {
		return Size{}, classify("size", "", err)
	}
	c.setState(StateExecuted)
	return s, nil
}
