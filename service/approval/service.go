package approval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/posmock/posmock/internal/clock"
	"github.com/posmock/posmock/internal/idgen"
	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/dao"
	"github.com/posmock/posmock/service/dao/store"
	"github.com/posmock/posmock/service/messaging"
	qmem "github.com/posmock/posmock/service/messaging/memory"
	"github.com/posmock/posmock/service/notify"
)

// Option customises the approval service.
type Option func(*Service)

// WithNotifier injects the external notification channel.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger injects the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithQueue attaches the event queue external observers consume.
func WithQueue(q messaging.Queue[Event]) Option {
	return func(s *Service) { s.events = q }
}

// Service owns the pending-request registry and the rendezvous between a
// waiting decision and its asynchronously delivered resolution.
type Service struct {
	registry  *Registry
	notifier  notify.Notifier
	events    messaging.Queue[Event]
	decisions dao.Service[string, Decision]
	logger    *zap.Logger
}

func decisionKey(d *Decision) string { return d.ID }

// New creates an approval service. Without options it has no reachable
// notification channel and every wait resolves by timeout.
func New(options ...Option) *Service {
	ret := &Service{
		registry:  NewRegistry(),
		notifier:  notify.Nop(),
		events:    qmem.NewQueue[Event](qmem.DefaultConfig()),
		decisions: store.NewMemoryStore[string, Decision](decisionKey),
		logger:    zap.NewNop(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Await suspends the calling task until an external decision for a freshly
// generated correlation id arrives, or timeout elapses, whichever happens
// first. Exactly one of the two determines the returned outcome.
//
// A non-positive timeout means the decision window is already closed: the
// default outcome is returned immediately, nothing is registered and no
// prompt is sent.
func (s *Service) Await(ctx context.Context, service string, payload map[string]interface{}, timeout time.Duration, defaultOutcome model.Outcome) (model.Outcome, error) {
	if timeout <= 0 {
		return defaultOutcome, nil
	}

	req := &Request{
		ID:        idgen.New(),
		Service:   service,
		Payload:   payload,
		CreatedAt: clock.Now(),
	}
	ch, err := s.registry.Add(req)
	if err != nil {
		return defaultOutcome, err
	}
	_ = s.events.Publish(ctx, &Event{Topic: TopicRequestCreated, Request: req})

	// Fire-and-forget: delivery failure leaves the wait running to timeout.
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		prompt := &notify.Prompt{
			Service:       req.Service,
			CorrelationID: req.ID,
			Payload:       req.Payload,
			CreatedAt:     req.CreatedAt,
		}
		if err := s.notifier.Notify(nctx, prompt); err != nil {
			s.logger.Warn("notification channel unavailable",
				zap.String("service", req.Service),
				zap.String("correlationId", req.ID),
				zap.Error(err))
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-ch:
		s.registry.Remove(req.ID)
		s.recordDecision(ctx, req.ID, outcome)
		return outcome, nil
	case <-timer.C:
		if outcome, resolved := s.registry.Expire(req.ID); resolved {
			s.recordDecision(ctx, req.ID, outcome)
			return outcome, nil
		}
		_ = s.events.Publish(ctx, &Event{Topic: TopicRequestExpired, Request: req})
		return defaultOutcome, nil
	case <-ctx.Done():
		if outcome, resolved := s.registry.Expire(req.ID); resolved {
			s.recordDecision(ctx, req.ID, outcome)
			return outcome, nil
		}
		return defaultOutcome, ctx.Err()
	}
}

// Resolve delivers an external decision for the given correlation id. The
// outcome token is case-insensitive ("OK" normalises to SUCCESS). Unknown,
// already-resolved and expired ids are late or duplicate approvals: they are
// discarded silently, surfacing no error to the resolver.
func (s *Service) Resolve(ctx context.Context, id string, outcomeToken string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	outcome, err := model.ParseOutcome(outcomeToken)
	if err != nil {
		return err
	}
	if s.registry.Resolve(id, outcome) {
		return nil
	}
	// Kept observable for audit: the decision can no longer change anything.
	s.logger.Warn("discarded late or duplicate resolution",
		zap.String("correlationId", id),
		zap.String("outcome", string(outcome)))
	_ = s.events.Publish(ctx, &Event{Topic: TopicDecisionDiscarded, Decision: &Decision{
		ID:        id,
		Outcome:   outcome,
		DecidedAt: clock.Now(),
	}})
	return nil
}

// ListPending lists in-flight requests, oldest first.
func (s *Service) ListPending() []*Request {
	return s.registry.Pending()
}

// Decision returns the recorded decision for a correlation id, or nil when
// the request timed out or never existed.
func (s *Service) Decision(ctx context.Context, id string) *Decision {
	d, _ := s.decisions.Load(ctx, id)
	return d
}

// Queue exposes the lifecycle event queue.
func (s *Service) Queue() messaging.Queue[Event] { return s.events }

func (s *Service) recordDecision(ctx context.Context, id string, outcome model.Outcome) {
	d := &Decision{ID: id, Outcome: outcome, DecidedAt: clock.Now()}
	_ = s.decisions.Save(ctx, d)
	_ = s.events.Publish(ctx, &Event{Topic: TopicDecisionCreated, Decision: d})
}
