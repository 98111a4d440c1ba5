// Package finality implements the instant-finality state-transition
// confirmer: a proposed transition is validated and applied atomically in
// the same call, or rejected.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package finality

import (
	"encoding/binary"
	"time"
)

// State is the single piece of global mutable state this package
// guards; the WAL LSN counter is the only other global mutable in the
// system.
type State struct {
	Data    string
	Version uint64
}

// TransitionMetadata carries the provenance of a proposed transition.
type TransitionMetadata struct {
	Initiator      string
	Reason         string
	AdditionalInfo map[string]string
}

// StateTransition is a proposed move from StateBefore to StateAfter.
type StateTransition struct {
	ID          string
	StateBefore State
	StateAfter  State
	Metadata    TransitionMetadata
	Timestamp   time.Time
}

// Status is the outcome recorded on a FinalityConfirmation.
type Status string

const (
	StatusFinalized Status = "Finalized"
	StatusRejected  Status = "Rejected"
)

// Confirmation is the result of successfully processing a transition:
// the transition itself, its status, a human-readable message, and an
// optional Ed25519 signature over (ID, StateBefore, StateAfter) when a
// signing key has been loaded.
type Confirmation struct {
	Transition StateTransition
	Status     Status
	Message    string
	Signature  []byte
}

// IsValid reports whether the confirmation represents a successful
// finalization.
func (c Confirmation) IsValid() bool {
	return c.Status == StatusFinalized
}

// signingPayload is the exact byte sequence an Ed25519 signature covers:
// transition id, then state_before, then state_after.
func signingPayload(t StateTransition) []byte {
	var versionBuf [8]byte

	buf := []byte(t.ID)
	buf = append(buf, 0)
	buf = append(buf, []byte(t.StateBefore.Data)...)
	binary.BigEndian.PutUint64(versionBuf[:], t.StateBefore.Version)
	buf = append(buf, versionBuf[:]...)
	buf = append(buf, []byte(t.StateAfter.Data)...)
	binary.BigEndian.PutUint64(versionBuf[:], t.StateAfter.Version)
	buf = append(buf, versionBuf[:]...)
	return buf
}
