package model

import (
	"fmt"
	"strings"
)

// ServiceMode selects how a simulated service answers inbound transactions.
type ServiceMode string

const (
	// ModeAutoSuccess answers every transaction positively.
	ModeAutoSuccess ServiceMode = "AUTO_SUCCESS"
	// ModeAutoFailure answers every transaction negatively.
	ModeAutoFailure ServiceMode = "AUTO_FAILURE"
	// ModeManual defers each transaction to a human approver.
	ModeManual ServiceMode = "MANUAL"
	// ModeSequence draws answers from a pre-shuffled success/failure queue.
	ModeSequence ServiceMode = "SEQUENCE"
)

// Valid reports whether the mode is one of the recognised values.
func (m ServiceMode) Valid() bool {
	switch m {
	case ModeAutoSuccess, ModeAutoFailure, ModeManual, ModeSequence:
		return true
	}
	return false
}

// ParseMode converts a case-insensitive mode token to a ServiceMode.
func ParseMode(token string) (ServiceMode, error) {
	mode := ServiceMode(strings.ToUpper(strings.TrimSpace(token)))
	if !mode.Valid() {
		return "", fmt.Errorf("unknown service mode: %q", token)
	}
	return mode, nil
}

// Outcome is the verdict produced for a single transaction.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Succeeded reports whether the outcome is positive.
func (o Outcome) Succeeded() bool { return o == OutcomeSuccess }

// ParseOutcome normalises a case-insensitive outcome token. "OK" and
// "APPROVED" are accepted as success synonyms, "NOT_OK", "DECLINED" and
// "REJECTED" as failure synonyms.
func ParseOutcome(token string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "SUCCESS", "OK", "APPROVED":
		return OutcomeSuccess, nil
	case "FAILURE", "FAIL", "NOT_OK", "DECLINED", "REJECTED":
		return OutcomeFailure, nil
	}
	return "", fmt.Errorf("unknown outcome token: %q", token)
}

// OutcomeOf maps a boolean verdict back to an Outcome.
func OutcomeOf(succeeded bool) Outcome {
	if succeeded {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
