package worker

import (
	"context"

	"github.com/surya021104/bug-tracker/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// NotificationProcessor delivers one notification to its destinations.
type NotificationProcessor interface {
	Process(ctx context.Context, msg queue.Message) error
}
