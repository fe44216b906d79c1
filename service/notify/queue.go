package notify

import (
	"context"

	"github.com/posmock/posmock/service/messaging"
)

// QueueNotifier publishes prompts on a messaging queue for an out-of-process
// bot/UI consumer.
type QueueNotifier struct {
	queue messaging.Queue[Prompt]
}

// NewQueueNotifier creates a queue-backed notifier.
func NewQueueNotifier(queue messaging.Queue[Prompt]) *QueueNotifier {
	return &QueueNotifier{queue: queue}
}

// Notify publishes the prompt. A full queue surfaces as a delivery error.
func (n *QueueNotifier) Notify(ctx context.Context, prompt *Prompt) error {
	if n.queue == nil {
		return ErrNoRecipients
	}
	return n.queue.Publish(ctx, prompt)
}

// Queue exposes the underlying queue so a consumer can be attached.
func (n *QueueNotifier) Queue() messaging.Queue[Prompt] { return n.queue }

var _ Notifier = (*QueueNotifier)(nil)
