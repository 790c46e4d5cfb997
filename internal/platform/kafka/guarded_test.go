package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dealroom/pkg/platform/circuit"
)

type stubPublisher struct {
	calls int
	err   error
}

func (s *stubPublisher) Publish(context.Context, []byte, []byte) error {
	s.calls++
	return s.err
}

func TestGuardedPublisher(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	breaker := circuit.New("activities",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	next := &stubPublisher{err: errors.New("broker down")}
	g := NewGuardedPublisher(next, breaker, logger)

	assert.Error(t, g.Publish(ctx, []byte("k"), []byte("v")))
	assert.Error(t, g.Publish(ctx, []byte("k"), []byte("v")))
	assert.True(t, breaker.IsOpen())

	// open: the broker is not contacted
	assert.ErrorIs(t, g.Publish(ctx, []byte("k"), []byte("v")), ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)

	// after the cooldown a successful probe closes the circuit
	now = now.Add(time.Minute)
	next.err = nil
	assert.NoError(t, g.Publish(ctx, []byte("k"), []byte("v")))
	assert.False(t, breaker.IsOpen())
	assert.Equal(t, 3, next.calls)
}
