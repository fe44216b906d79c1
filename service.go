package posmock

import (
	"context"

	"go.uber.org/zap"

	"github.com/posmock/posmock/gateway"
	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/approval"
	"github.com/posmock/posmock/service/audit"
	"github.com/posmock/posmock/service/engine"
	"github.com/posmock/posmock/service/messaging"
	qmem "github.com/posmock/posmock/service/messaging/memory"
	"github.com/posmock/posmock/service/notify"
	"github.com/posmock/posmock/service/policy"
	"github.com/posmock/posmock/service/responder"

	"net/http"
)

// Service assembles the responder: policy store, approval rendezvous,
// decision engine, edge responders and HTTP gateway.
type Service struct {
	config    *Config
	logger    *zap.Logger
	policies  *policy.Store
	approvals *approval.Service
	engine    *engine.Service
	responder *responder.Service
	auditLog  *audit.Log
	notifier  notify.Notifier
	prompts   messaging.Queue[notify.Prompt]
	decisions messaging.Queue[model.LogEntry]
	handler   http.Handler
}

// New creates a fully wired responder service.
func New(config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{config: config}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.auditLog == nil {
		s.auditLog = audit.NewLog(s.config.Audit.Capacity)
	}
	if s.policies == nil {
		s.policies = policy.NewStore()
	}
	for service, sc := range s.config.Services {
		p, err := sc.Policy()
		if err != nil {
			return err
		}
		if err := s.policies.Set(service, p); err != nil {
			return err
		}
	}

	queueConfig := qmem.Config{QueueBuffer: s.config.Notifier.QueueBuffer}
	s.prompts = qmem.NewQueue[notify.Prompt](queueConfig)
	s.decisions = qmem.NewQueue[model.LogEntry](queueConfig)

	if s.notifier == nil {
		channels := []notify.Notifier{notify.NewQueueNotifier(s.prompts)}
		if len(s.config.Notifier.WebhookRecipients) > 0 {
			channels = append(channels, notify.NewWebhookNotifier(s.config.Notifier.WebhookRecipients, s.logger))
		}
		s.notifier = notify.Fanout(channels...)
	}

	s.approvals = approval.New(
		approval.WithNotifier(s.notifier),
		approval.WithLogger(s.logger))
	s.engine = engine.New(s.policies, s.approvals)
	s.responder = responder.New(s.engine, s.auditLog,
		responder.WithLogger(s.logger),
		responder.WithEvents(s.decisions))

	handlers := gateway.NewHandler(s.responder, s.policies, s.approvals, s.auditLog, s.logger)
	s.handler = gateway.NewRouter(handlers, s.logger)
	return nil
}

// Handler returns the HTTP surface for embedding in a server.
func (s *Service) Handler() http.Handler { return s.handler }

// Responder exposes the edge responders.
func (s *Service) Responder() *responder.Service { return s.responder }

// Policies exposes the policy store.
func (s *Service) Policies() *policy.Store { return s.policies }

// Approvals exposes the approval rendezvous.
func (s *Service) Approvals() *approval.Service { return s.approvals }

// AuditLog exposes the decision log.
func (s *Service) AuditLog() *audit.Log { return s.auditLog }

// Prompts returns the queue approval prompts are published on.
func (s *Service) Prompts() messaging.Queue[notify.Prompt] { return s.prompts }

// Decisions returns the queue every decision record is published on.
func (s *Service) Decisions() messaging.Queue[model.LogEntry] { return s.decisions }

// ExportAudit dumps the decision log as JSON lines to the destination URL.
func (s *Service) ExportAudit(ctx context.Context, URL string) error {
	return audit.NewExporter(s.auditLog).Export(ctx, URL)
}
