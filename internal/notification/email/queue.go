package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeDeliver is the asynq task type for a single email.
const TypeDeliver = "email:deliver"

// Queue accepts emails for asynchronous delivery.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// AsynqQueue enqueues delivery tasks on Redis.
type AsynqQueue struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

func NewAsynqQueue(client *asynq.Client, queue string, maxRetry int) *AsynqQueue {
	return &AsynqQueue{client: client, queue: queue, maxRetry: maxRetry}
}

func (q *AsynqQueue) Enqueue(ctx context.Context, msg Message) error {
	task, err := NewDeliverTask(msg)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(q.queue),
		asynq.MaxRetry(q.maxRetry),
		asynq.Timeout(30*time.Second),
	); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// NewDeliverTask wraps msg in an asynq task.
func NewDeliverTask(msg Message) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeDeliver, payload), nil
}

// DirectQueue sends inline. It stands in for the queue when Redis is not configured.
type DirectQueue struct {
	sender Sender
}

func NewDirectQueue(sender Sender) *DirectQueue {
	return &DirectQueue{sender: sender}
}

func (q *DirectQueue) Enqueue(ctx context.Context, msg Message) error {
	return q.sender.Send(ctx, msg)
}
