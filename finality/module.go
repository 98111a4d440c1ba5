// Package finality implements the instant-finality state-transition
// confirmer: a proposed transition is validated and applied atomically in
// the same call, or rejected.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package finality

import (
	"crypto/ed25519"
	"crypto/x509"
	"sync"
	"time"

	"github.com/dotlanth/dotvm/cmn"
)

// Module is the instant-finality confirmer: one validator, one audit
// logger, one mutex-guarded current state, and an optional signing key.
// Validation runs before the state-store lock is taken; under the lock
// the version/data comparison, the swap, the optional signing and the
// audit-log call happen.
type Module struct {
	validator *Validator
	logger    *AuditLogger

	mu      sync.Mutex
	current State

	keyMu      sync.RWMutex
	signingKey ed25519.PrivateKey
}

// New initializes a module with the given validator and genesis state.
// A nil validator falls back to NewValidator's defaults.
func New(validator *Validator, initialState State) *Module {
	if validator == nil {
		validator = NewValidator()
	}
	return &Module{
		validator: validator,
		logger:    NewAuditLogger(),
		current:   initialState,
	}
}

// InitializeSigningKey loads an Ed25519 private key from PKCS8 DER bytes.
// Once loaded, every subsequent finalized confirmation carries a
// signature; process_transition never requires one.
func (m *Module) InitializeSigningKey(pkcs8Bytes []byte) error {
	key, err := x509.ParsePKCS8PrivateKey(pkcs8Bytes)
	if err != nil {
		return cmn.Validationf("finality.InitializeSigningKey", "invalid PKCS8 key: %v", err)
	}
	sk, ok := key.(ed25519.PrivateKey)
	if !ok {
		return cmn.Validationf("finality.InitializeSigningKey", "PKCS8 key is not Ed25519")
	}

	m.keyMu.Lock()
	m.signingKey = sk
	m.keyMu.Unlock()
	return nil
}

// ProcessTransition validates transition, and on success atomically
// finalizes it against the current state.
//
// Flow: (1) log proposal; (2) validate via the configured Validator;
// (3) on success, finalize under the state-store lock.
func (m *Module) ProcessTransition(transition StateTransition) (Confirmation, error) {
	m.logger.logProposal(transition)

	err := m.validator.Validate(transition, time.Now())
	m.logger.logValidationResult(transition, err)
	if err != nil {
		m.logger.logFinalizationFailure(transition, err.Error())
		return Confirmation{}, err
	}

	return m.finalizeTransition(transition)
}

// finalizeTransition performs the version/data consistency check and
// the state swap under m.mu, then builds the confirmation.
func (m *Module) finalizeTransition(transition StateTransition) (Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if transition.StateBefore.Version != m.current.Version || transition.StateBefore.Data != m.current.Data {
		err := cmn.Validationf("finality.ProcessTransition", "state has been updated")
		m.logger.logFinalizationFailure(transition, err.Error())
		return Confirmation{}, err
	}

	m.current = transition.StateAfter

	confirmation := Confirmation{
		Transition: transition,
		Status:     StatusFinalized,
		Message:    "Transition successfully finalized",
	}

	m.keyMu.RLock()
	sk := m.signingKey
	m.keyMu.RUnlock()
	if sk != nil {
		confirmation.Signature = ed25519.Sign(sk, signingPayload(transition))
	}

	m.logger.logFinalizationSuccess(confirmation)
	return confirmation, nil
}

// GetCurrentState returns the module's current state.
func (m *Module) GetCurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SetCurrentState overwrites the current state outright, used to seed
// or recover state outside the normal transition pipeline (e.g. restore
// from a checkpoint).
func (m *Module) SetCurrentState(state State) {
	m.mu.Lock()
	m.current = state
	m.mu.Unlock()
}

// VerifySignature reports whether sig is a valid Ed25519 signature over
// transition's signing payload under publicKey.
func VerifySignature(publicKey ed25519.PublicKey, transition StateTransition, sig []byte) bool {
	return ed25519.Verify(publicKey, signingPayload(transition), sig)
}
