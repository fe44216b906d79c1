// Package notify pushes manual-approval prompts toward the external channel
// where a human approver lives. Delivery is best-effort: a failed or
// unavailable notification never aborts the wait, which still resolves by
// timeout.
package notify

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients indicates the channel has nobody to deliver to.
var ErrNoRecipients = errors.New("notify: no recipients configured")

// Prompt is the payload handed to the channel for one pending decision. The
// request payload is opaque to the engine; it is forwarded verbatim so the
// approver sees what they are deciding on.
type Prompt struct {
	Service       string                 `json:"service"`
	CorrelationID string                 `json:"correlationId"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// Notifier is the injected collaborator the approval service calls
// fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, prompt *Prompt) error
}

// Func adapts a plain function to the Notifier interface.
type Func func(ctx context.Context, prompt *Prompt) error

func (f Func) Notify(ctx context.Context, prompt *Prompt) error { return f(ctx, prompt) }

// Nop returns a notifier that reports the channel as unavailable. It is the
// default when no channel is wired.
func Nop() Notifier {
	return Func(func(context.Context, *Prompt) error { return ErrNoRecipients })
}

// Fanout notifies every child channel and aggregates their errors. One
// reachable channel is enough for the prompt to count as delivered.
func Fanout(notifiers ...Notifier) Notifier {
	return Func(func(ctx context.Context, prompt *Prompt) error {
		if len(notifiers) == 0 {
			return ErrNoRecipients
		}
		var errs []error
		delivered := false
		for _, n := range notifiers {
			if err := n.Notify(ctx, prompt); err != nil {
				errs = append(errs, err)
				continue
			}
			delivered = true
		}
		if delivered {
			return nil
		}
		return errors.Join(errs...)
	})
}
