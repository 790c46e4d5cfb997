package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Processor handles delivery tasks in the worker process.
type Processor struct {
	sender Sender
	logger *slog.Logger
}

func NewProcessor(sender Sender, logger *slog.Logger) *Processor {
	return &Processor{sender: sender, logger: logger}
}

// Register binds the processor's handlers on mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDeliver, p.HandleDeliver)
}

// HandleDeliver sends one email. Malformed payloads are not retried.
func (p *Processor) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	var msg Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}
	if msg.To == "" {
		return fmt.Errorf("email payload has no recipient: %w", asynq.SkipRetry)
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		p.logger.WarnContext(ctx, "email delivery failed",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return err
	}
	p.logger.InfoContext(ctx, "email delivered",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
