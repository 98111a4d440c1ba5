// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"crypto/ed25519"
)

// The stored private key is the 32-byte seed, not the stdlib's expanded
// 64-byte representation, so keys stay interchangeable with other
// Ed25519 implementations.
const (
	ed25519SeedSize      = ed25519.SeedSize
	ed25519PublicKeySize = ed25519.PublicKeySize
)

func ed25519GenerateKey() (public, seed []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv.Seed(), nil
}

func ed25519Sign(seed, data []byte) []byte {
	priv := ed25519.NewKeyFromSeed(seed)
	return ed25519.Sign(priv, data)
}

func ed25519Verify(public, data, signature []byte) bool {
	return ed25519.Verify(public, data, signature)
}
