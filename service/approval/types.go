package approval

import (
	"time"

	"github.com/posmock/posmock/model"
)

// Standard event topics published on the approval queue.
const (
	TopicRequestCreated    = "approval.request.created"
	TopicRequestExpired    = "approval.request.expired"
	TopicDecisionCreated   = "approval.decision.created"
	TopicDecisionDiscarded = "approval.decision.discarded"
)

// Event envelope published for every lifecycle transition of a pending
// request so that external observers (bot, dashboards) can follow along.
type Event struct {
	Topic    string    `json:"topic"`
	Request  *Request  `json:"request,omitempty"`
	Decision *Decision `json:"decision,omitempty"`
}

// Request represents one in-flight manual decision. Payload is the opaque
// request snapshot handed to the notifier; the engine never interprets it.
type Request struct {
	ID        string                 `json:"id"` // correlation id, globally unique
	Service   string                 `json:"service"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Decision records how a pending request was resolved.
type Decision struct {
	ID        string        `json:"id"` // same as Request.ID
	Outcome   model.Outcome `json:"outcome"`
	DecidedAt time.Time     `json:"decidedAt"`
}
