// Package responder builds the simulated edge responses (payment terminal,
// fiscal printer, kitchen display) around the verdict produced by the
// decision engine, and records every decision in the audit log.
package responder

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/posmock/posmock/internal/clock"
	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/audit"
	"github.com/posmock/posmock/service/engine"
	"github.com/posmock/posmock/service/messaging"
)

// Option customises the responder.
type Option func(*Service)

// WithLogger injects the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEvents attaches a queue every decision record is also published on,
// mirroring the per-decision push notification of the managing channel.
func WithEvents(q messaging.Queue[model.LogEntry]) Option {
	return func(s *Service) { s.events = q }
}

// Service orchestrates decide → build payload → log for the three edges.
type Service struct {
	engine *engine.Service
	log    *audit.Log
	events messaging.Queue[model.LogEntry]
	logger *zap.Logger

	// identifier counters, seeded to match the simulated environment
	paymentID    atomic.Int64
	fiscalDocSeq atomic.Int64
	kdsTicketSeq atomic.Int64
}

// New creates a responder over the given engine and audit log.
func New(eng *engine.Service, log *audit.Log, options ...Option) *Service {
	ret := &Service{
		engine: eng,
		log:    log,
		logger: zap.NewNop(),
	}
	ret.paymentID.Store(1809)
	for _, option := range options {
		option(ret)
	}
	return ret
}

// record appends the decision to the audit log and publishes it for
// observers. Logging is the orchestrator's job: the engine stays pure.
func (s *Service) record(ctx context.Context, service string, mode model.ServiceMode, status string, request, response map[string]interface{}) {
	entry := &model.LogEntry{
		Timestamp: clock.Now(),
		Service:   service,
		Request:   request,
		Response:  response,
		Mode:      mode,
		Status:    status,
	}
	s.log.Append(entry)
	if s.events != nil {
		_ = s.events.Publish(ctx, entry)
	}
	s.logger.Info("decision",
		zap.String("service", service),
		zap.String("mode", string(mode)),
		zap.String("status", status))
}

// timeLayout renders timestamps the way the simulated edges expose them.
const timeLayout = time.RFC3339

func clockNowUTC() time.Time { return clock.Now().UTC() }

// asMap converts a typed payload to the opaque key/value form the engine,
// notifier and audit log carry.
func asMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
