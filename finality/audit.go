// Package finality implements the instant-finality state-transition
// confirmer: a proposed transition is validated and applied atomically in
// the same call, or rejected.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package finality

import "github.com/golang/glog"

// AuditLogger records the transition lifecycle events
// process_transition emits: proposal, validation outcome, and
// finalization success or failure.
type AuditLogger struct{}

// NewAuditLogger returns a logger writing through glog, the module's
// ambient logging sink.
func NewAuditLogger() *AuditLogger { return &AuditLogger{} }

func (l *AuditLogger) logProposal(t StateTransition) {
	glog.V(3).Infof("finality: proposal %s initiator=%q %d->%d", t.ID, t.Metadata.Initiator, t.StateBefore.Version, t.StateAfter.Version)
}

func (l *AuditLogger) logValidationResult(t StateTransition, err error) {
	if err != nil {
		glog.V(2).Infof("finality: validation failed for %s: %v", t.ID, err)
		return
	}
	glog.V(3).Infof("finality: validation passed for %s", t.ID)
}

func (l *AuditLogger) logFinalizationSuccess(c Confirmation) {
	glog.V(2).Infof("finality: finalized %s -> version %d", c.Transition.ID, c.Transition.StateAfter.Version)
}

func (l *AuditLogger) logFinalizationFailure(t StateTransition, reason string) {
	glog.V(2).Infof("finality: finalization failed for %s: %s", t.ID, reason)
}
