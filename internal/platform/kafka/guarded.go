package kafka

import (
	"context"
	"errors"
	"log/slog"

	"dealroom/pkg/platform/circuit"
)

// ErrCircuitOpen is returned without contacting the broker while the breaker is open.
var ErrCircuitOpen = errors.New("kafka publisher circuit open")

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// GuardedPublisher stops calling a failing broker until the breaker's
// cooldown passes. Callers treat publishing as best-effort.
type GuardedPublisher struct {
	next    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedPublisher(next Publisher, breaker *circuit.Breaker, logger *slog.Logger) *GuardedPublisher {
	return &GuardedPublisher{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedPublisher) Publish(ctx context.Context, key, value []byte) error {
	if !g.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := g.next.Publish(ctx, key, value); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "publisher circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "publisher circuit closed", "breaker", g.breaker.Name())
	}
	return nil
}
