// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto_test

import (
	"bytes"
	"testing"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/crypto"
)

func TestHashIsDeterministic(t *testing.T) {
	for _, alg := range []crypto.HashAlgorithm{crypto.Sha256, crypto.Blake3, crypto.Keccak256} {
		a, err := crypto.Hash(alg, []byte("dotvm"))
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		b, err := crypto.Hash(alg, []byte("dotvm"))
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("%s: hash not deterministic", alg)
		}
		if len(a) != 32 {
			t.Fatalf("%s: digest length = %d, want 32", alg, len(a))
		}
	}
}

func TestHashAlgorithmsDiffer(t *testing.T) {
	sha, _ := crypto.Hash(crypto.Sha256, []byte("dotvm"))
	b3, _ := crypto.Hash(crypto.Blake3, []byte("dotvm"))
	kec, _ := crypto.Hash(crypto.Keccak256, []byte("dotvm"))
	if bytes.Equal(sha, b3) || bytes.Equal(sha, kec) || bytes.Equal(b3, kec) {
		t.Fatalf("distinct algorithms produced identical digests")
	}
}

func TestHashRejectsUnknownAlgorithm(t *testing.T) {
	_, err := crypto.Hash("Md5", []byte("x"))
	if err == nil || !cmn.IsKind(err, cmn.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
