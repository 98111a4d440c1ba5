// Package finality implements the instant-finality state-transition
// confirmer: a proposed transition is validated and applied atomically in
// the same call, or rejected.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package finality_test

import (
	"crypto/ed25519"
	"crypto/x509"
	"sync"
	"testing"
	"time"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/finality"
)

func genesis() finality.State {
	return finality.State{Data: "genesis", Version: 0}
}

func transitionFrom(current finality.State, id, newData, initiator string) finality.StateTransition {
	return finality.StateTransition{
		ID:          id,
		StateBefore: current,
		StateAfter:  finality.State{Data: newData, Version: current.Version + 1},
		Metadata:    finality.TransitionMetadata{Initiator: initiator, Reason: "test"},
		Timestamp:   time.Now(),
	}
}

func TestProcessTransitionFinalizesAndAdvancesState(t *testing.T) {
	m := finality.New(nil, genesis())
	tr := transitionFrom(m.GetCurrentState(), "t1", "state_1", "test_user")

	conf, err := m.ProcessTransition(tr)
	if err != nil {
		t.Fatalf("ProcessTransition: %v", err)
	}
	if !conf.IsValid() {
		t.Fatalf("expected confirmation to be valid")
	}

	got := m.GetCurrentState()
	if got.Version != 1 || got.Data != "state_1" {
		t.Fatalf("state = %+v, want version=1 data=state_1", got)
	}
}

func TestProcessTransitionRejectsUnauthorizedInitiator(t *testing.T) {
	validator := finality.NewValidatorWithConfig(10*time.Second, true, []string{"test_user", "admin"})
	m := finality.New(validator, genesis())

	tr := transitionFrom(m.GetCurrentState(), "t1", "state_1", "unauthorized_user")
	_, err := m.ProcessTransition(tr)
	if err == nil || !cmn.IsKind(err, cmn.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDuplicateTransitionFailsWithStaleState(t *testing.T) {
	m := finality.New(nil, genesis())
	tr := transitionFrom(m.GetCurrentState(), "t1", "state_1", "test_user")

	if _, err := m.ProcessTransition(tr); err != nil {
		t.Fatalf("first ProcessTransition: %v", err)
	}

	_, err := m.ProcessTransition(tr)
	if err == nil {
		t.Fatalf("expected second submission of the same transition to fail")
	}
	if !cmn.IsKind(err, cmn.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

// TestFinalityConflict is the finality-conflict scenario: two concurrent
// proposals both built against the same prior state. Exactly one must
// succeed; the other must fail with a state-mismatch validation error;
// the final current state is the winner's state_after.
func TestFinalityConflict(t *testing.T) {
	m := finality.New(nil, genesis())
	prior := m.GetCurrentState()

	trA := transitionFrom(prior, "tA", "A", "test_user")
	trB := transitionFrom(prior, "tB", "B", "test_user")

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = m.ProcessTransition(trA)
	}()
	go func() {
		defer wg.Done()
		_, results[1] = m.ProcessTransition(trB)
	}()
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d (%v)", successes, results)
	}

	final := m.GetCurrentState()
	if final.Data != "A" && final.Data != "B" {
		t.Fatalf("final state %+v should match one of the two proposals", final)
	}
}

func TestSigningAttachesAndVerifiesSignature(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}

	m := finality.New(nil, genesis())
	if err := m.InitializeSigningKey(pkcs8); err != nil {
		t.Fatalf("InitializeSigningKey: %v", err)
	}

	tr := transitionFrom(m.GetCurrentState(), "t1", "state_1", "test_user")
	conf, err := m.ProcessTransition(tr)
	if err != nil {
		t.Fatalf("ProcessTransition: %v", err)
	}
	if len(conf.Signature) == 0 {
		t.Fatalf("expected a signature to be attached")
	}
	if !finality.VerifySignature(priv.Public().(ed25519.PublicKey), tr, conf.Signature) {
		t.Fatalf("signature did not verify")
	}
}

func TestNoSigningKeyMeansNoSignature(t *testing.T) {
	m := finality.New(nil, genesis())
	tr := transitionFrom(m.GetCurrentState(), "t1", "state_1", "test_user")
	conf, err := m.ProcessTransition(tr)
	if err != nil {
		t.Fatalf("ProcessTransition: %v", err)
	}
	if conf.Signature != nil {
		t.Fatalf("expected no signature without a loaded key")
	}
}

func TestValidatorRejectsNonMonotonicVersion(t *testing.T) {
	v := finality.NewValidator()
	tr := finality.StateTransition{
		StateBefore: finality.State{Data: "x", Version: 5},
		StateAfter:  finality.State{Data: "y", Version: 5},
		Timestamp:   time.Now(),
	}
	if err := v.Validate(tr, time.Now()); err == nil {
		t.Fatalf("expected non-monotonic version to fail validation")
	}
}
