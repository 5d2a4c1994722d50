package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), []time.Duration{time.Millisecond, time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), []time.Duration{time.Millisecond}, func() error {
		calls++
		return fmt.Errorf("%w: lot", ErrResultExists)
	})

	require.ErrorIs(t, err, ErrResultExists)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUpAfterDelays(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), []time.Duration{time.Millisecond, time.Millisecond}, func() error {
		calls++
		return errors.New("dial tcp: connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, []time.Duration{time.Hour}, func() error {
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	require.ErrorIs(t, err, context.Canceled)
}
