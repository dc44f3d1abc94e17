package database

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("in-memory sqlite", func(t *testing.T) {
		db, err := New(WithMaxOpenConns(1))
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
		var one int
		require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
		assert.Equal(t, 1, one)
	})

	t.Run("empty driver", func(t *testing.T) {
		_, err := New(WithDriver(""))
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("empty data source", func(t *testing.T) {
		_, err := New(WithDataSource(""))
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("unknown driver exhausts retries", func(t *testing.T) {
		_, err := New(WithDriver("nosuchdriver"), WithRetry(2, time.Millisecond))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Open(ctx, WithDriver("nosuchdriver"), WithRetry(5, time.Hour))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
