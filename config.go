package posmock

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/posmock/posmock/model"
)

// Config is the serialisable responder configuration. The zero value is
// useful: every nested field falls back to its package default.
type Config struct {
	HTTP     HTTPConfig               `json:"http" yaml:"http"`
	Audit    AuditConfig              `json:"audit" yaml:"audit"`
	Notifier NotifierConfig           `json:"notifier" yaml:"notifier"`
	Tracing  TracingConfig            `json:"tracing" yaml:"tracing"`
	Services map[string]ServiceConfig `json:"services,omitempty" yaml:"services,omitempty"`
}

// HTTPConfig configures the gateway listener.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// AuditConfig configures the decision log.
type AuditConfig struct {
	Capacity int `json:"capacity" yaml:"capacity"`
}

// NotifierConfig configures the approval notification channel.
type NotifierConfig struct {
	// WebhookRecipients get each approval prompt POSTed as JSON.
	WebhookRecipients []string `json:"webhookRecipients,omitempty" yaml:"webhookRecipients,omitempty"`
	// QueueBuffer sizes the in-memory prompt/event queues.
	QueueBuffer int `json:"queueBuffer" yaml:"queueBuffer"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// ServiceConfig is the startup policy for one simulated service.
type ServiceConfig struct {
	Mode            string `json:"mode" yaml:"mode"`
	TimeoutSeconds  int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	DefaultResponse string `json:"defaultResponse" yaml:"defaultResponse"`
	SuccessCount    int    `json:"successCount" yaml:"successCount"`
	FailureCount    int    `json:"failureCount" yaml:"failureCount"`
}

// DefaultConfig returns a Config with the same defaults the constructors use.
func DefaultConfig() *Config {
	return &Config{
		HTTP:     HTTPConfig{Addr: ":8080"},
		Audit:    AuditConfig{Capacity: 1000},
		Notifier: NotifierConfig{QueueBuffer: 100},
	}
}

// Validate returns an error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Audit.Capacity < 0 {
		return fmt.Errorf("audit.capacity must be >= 0")
	}
	for service, sc := range c.Services {
		if _, err := model.ParseMode(sc.Mode); err != nil {
			return fmt.Errorf("services.%s: %w", service, err)
		}
		if sc.SuccessCount < 0 || sc.FailureCount < 0 {
			return fmt.Errorf("services.%s: outcome counts must be non-negative", service)
		}
	}
	return nil
}

// Policy converts a startup service entry to a runtime policy.
func (s *ServiceConfig) Policy() (*model.ServicePolicy, error) {
	mode, err := model.ParseMode(s.Mode)
	if err != nil {
		return nil, err
	}
	defaultOutcome := model.OutcomeSuccess
	if s.DefaultResponse != "" {
		if defaultOutcome, err = model.ParseOutcome(s.DefaultResponse); err != nil {
			return nil, err
		}
	}
	p := &model.ServicePolicy{
		Mode:           mode,
		Timeout:        time.Duration(s.TimeoutSeconds) * time.Second,
		DefaultOutcome: defaultOutcome,
	}
	if mode == model.ModeSequence {
		p.Sequence = &model.SequenceState{
			SuccessCount: s.SuccessCount,
			FailureCount: s.FailureCount,
		}
	}
	return p, nil
}

// LoadConfig reads a YAML config from any URL the abstract file system can
// address (file://, mem://, s3:// ...).
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
