// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto_test

import (
	"testing"

	"github.com/dotlanth/dotvm/crypto"
)

func TestEd25519SignAndVerifyRoundTrip(t *testing.T) {
	pair, err := crypto.GenerateKeyPair(crypto.Ed25519)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	data := []byte("finalize state transition")
	sig, err := crypto.Sign(pair.Private, data)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ok, err := crypto.Verify(pair.Public, sig, data)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}
}

func TestEd25519VerifyRejectsTamperedData(t *testing.T) {
	pair, err := crypto.GenerateKeyPair(crypto.Ed25519)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	sig, err := crypto.Sign(pair.Private, []byte("original"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ok, err := crypto.Verify(pair.Public, sig, []byte("tampered"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected verification to fail on tampered data")
	}
}

func TestEcdsaSecp256k1SignAndVerifyRoundTrip(t *testing.T) {
	pair, err := crypto.GenerateKeyPair(crypto.EcdsaSecp256k1)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	data := []byte("host call payload")
	sig, err := crypto.Sign(pair.Private, data)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ok, err := crypto.Verify(pair.Public, sig, data)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}
}
