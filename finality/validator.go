// Package finality implements the instant-finality state-transition
// confirmer: a proposed transition is validated and applied atomically in
// the same call, or rejected.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package finality

import (
	"time"

	"github.com/dotlanth/dotvm/cmn"
)

// DefaultMinTimestampDelta bounds how stale a proposed transition's
// timestamp may be by the time it reaches validation.
const DefaultMinTimestampDelta = 30 * time.Second

// Validator enforces the rules process_transition checks before a
// transition reaches the state-store swap: timestamp freshness, strict
// version monotonicity, and initiator authorization.
type Validator struct {
	MinTimestampDelta      time.Duration
	StrictVersionIncrement bool
	AuthorizedInitiators   []string
}

// NewValidator returns a permissive validator: no staleness bound beyond
// the default window, monotonic versions required, any initiator
// authorized.
func NewValidator() *Validator {
	return &Validator{
		MinTimestampDelta:      DefaultMinTimestampDelta,
		StrictVersionIncrement: true,
	}
}

// NewValidatorWithConfig builds a Validator from an explicit config.
func NewValidatorWithConfig(minTimestampDelta time.Duration, strictVersionIncrement bool, authorizedInitiators []string) *Validator {
	return &Validator{
		MinTimestampDelta:      minTimestampDelta,
		StrictVersionIncrement: strictVersionIncrement,
		AuthorizedInitiators:   authorizedInitiators,
	}
}

// Validate checks transition against the configured rules. It does not
// consult the current state store; that comparison happens under the
// state-store lock in Module.finalizeTransition.
func (v *Validator) Validate(t StateTransition, now time.Time) error {
	if v.MinTimestampDelta > 0 {
		age := now.Sub(t.Timestamp)
		if age < 0 {
			age = -age
		}
		if age > v.MinTimestampDelta {
			return cmn.Validationf("finality.Validate", "transition timestamp is stale: age %s exceeds %s", age, v.MinTimestampDelta)
		}
	}

	if v.StrictVersionIncrement && t.StateAfter.Version != t.StateBefore.Version+1 {
		return cmn.Validationf("finality.Validate", "state version must increment by exactly 1, got %d -> %d", t.StateBefore.Version, t.StateAfter.Version)
	}

	if len(v.AuthorizedInitiators) > 0 && !v.initiatorAuthorized(t.Metadata.Initiator) {
		return cmn.Validationf("finality.Validate", "initiator %q is not authorized to propose state transitions", t.Metadata.Initiator)
	}

	return nil
}

func (v *Validator) initiatorAuthorized(initiator string) bool {
	for _, allowed := range v.AuthorizedInitiators {
		if allowed == initiator {
			return true
		}
	}
	return false
}
