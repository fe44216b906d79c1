package gateway

import (
	"time"

	"github.com/posmock/posmock/model"
)

// PolicyPayload is the wire form of a service policy on the config surface.
// Timeouts travel as whole seconds, matching the admin tooling.
type PolicyPayload struct {
	Mode            string           `json:"mode"`
	TimeoutSeconds  int              `json:"timeout_seconds"`
	DefaultResponse string           `json:"default_response"`
	SequenceConfig  *SequencePayload `json:"sequence_config,omitempty"`
}

// SequencePayload carries the sequence counts; Remaining reports how many
// outcomes are left in the current cycle, for introspection only.
type SequencePayload struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
	Remaining    int `json:"remaining,omitempty"`
}

func (p *PolicyPayload) toPolicy() (*model.ServicePolicy, error) {
	mode, err := model.ParseMode(p.Mode)
	if err != nil {
		return nil, err
	}
	defaultOutcome := model.OutcomeSuccess
	if p.DefaultResponse != "" {
		if defaultOutcome, err = model.ParseOutcome(p.DefaultResponse); err != nil {
			return nil, err
		}
	}
	policy := &model.ServicePolicy{
		Mode:           mode,
		Timeout:        time.Duration(p.TimeoutSeconds) * time.Second,
		DefaultOutcome: defaultOutcome,
	}
	if p.SequenceConfig != nil {
		policy.Sequence = &model.SequenceState{
			SuccessCount: p.SequenceConfig.SuccessCount,
			FailureCount: p.SequenceConfig.FailureCount,
		}
	}
	return policy, nil
}

func fromPolicy(p *model.ServicePolicy) *PolicyPayload {
	out := &PolicyPayload{
		Mode:            string(p.Mode),
		TimeoutSeconds:  int(p.Timeout / time.Second),
		DefaultResponse: string(p.DefaultOutcome),
	}
	if p.Sequence != nil {
		out.SequenceConfig = &SequencePayload{
			SuccessCount: p.Sequence.SuccessCount,
			FailureCount: p.Sequence.FailureCount,
			Remaining:    len(p.Sequence.Remaining),
		}
	}
	return out
}
