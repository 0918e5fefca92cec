package db

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesItsKind(t *testing.T) {
	t.Parallel()

	sentinels := []error{ErrConnection, ErrSchema, ErrSerialization, ErrBinding, ErrIO, ErrQuery}

	testCases := []struct {
		name     string
		err      *Error
		sentinel error
		kind     Kind
	}{
		{"connection", newConnectionError("ping", io.EOF), ErrConnection, KindConnection},
		{"schema", newSchemaError("describe", "users", "table does not exist", nil), ErrSchema, KindSchema},
		{"serialization", newSerializationError("users", "name", 1, "bad value"), ErrSerialization, KindSerialization},
		{"binding", newBindingError(2, "type mismatch"), ErrBinding, KindBinding},
		{"io", newIOError("write", "/tmp/x.sql", io.ErrShortWrite), ErrIO, KindIO},
		{"query", newQueryError("exec", "users", errors.New("syntax error")), ErrQuery, KindQuery},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("exporting: %w", tc.err)
			for _, s := range sentinels {
				assert.Equal(t, s == tc.sentinel, errors.Is(wrapped, s), s.Error())
			}
			assert.Equal(t, tc.kind, KindOf(wrapped))

			var e *Error
			require.True(t, errors.As(wrapped, &e))
			assert.Same(t, tc.err, e)
		})
	}
}

func TestErrorDetails(t *testing.T) {
	t.Parallel()

	err := newSerializationError("users", "name", 1, "bad value")
	assert.Equal(t, "serialization error during serialize - at users.name - index 1 - bad value", err.Error())

	bindErr := newBindingError(-1, "empty statement")
	assert.Equal(t, "binding error during bind - empty statement", bindErr.Error())

	cause := errors.New("dial tcp: connection refused")
	connErr := newConnectionError("ping", cause)
	assert.ErrorIs(t, connErr, cause)
	assert.Contains(t, connErr.Error(), "connection refused")
}

func TestKindOfForeignError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
