package circuitbreaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/circuitbreaker"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("rpc")
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := circuitbreaker.New[int](cfg)

	boom := errors.New("rpc down")
	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	assert.False(t, called, "open breaker must not call through")
	assert.True(t, apperror.HasCode(err, apperror.CodeCircuitOpen))
}

func TestCircuitBreaker_CancellationDoesNotTrip(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("rpc")
	cfg.FailureThreshold = 1
	cb := circuitbreaker.New[int](cfg)

	_, err := cb.Execute(func() (int, error) { return 0, context.Canceled })
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	got, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, "rpc", cb.Name())
}
