package posmock

import (
	"go.uber.org/zap"

	"github.com/posmock/posmock/service/audit"
	"github.com/posmock/posmock/service/notify"
	"github.com/posmock/posmock/service/policy"
	"github.com/posmock/posmock/tracing"
)

// Option customises the responder service.
type Option func(s *Service)

// WithLogger sets the structured logger shared by all components.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithNotifier sets the approval notification channel. Without it pending
// prompts are published only on the in-memory prompt queue.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithPolicyStore replaces the default policy store.
func WithPolicyStore(store *policy.Store) Option {
	return func(s *Service) { s.policies = store }
}

// WithAuditLog replaces the default decision log.
func WithAuditLog(log *audit.Log) Option {
	return func(s *Service) { s.auditLog = log }
}

// WithTracing enables OpenTelemetry tracing. An empty outputFile writes
// spans to stdout. Safe to apply multiple times; the first initialisation
// wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}
