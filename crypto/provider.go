// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"context"
	"encoding/hex"

	"github.com/dotlanth/dotvm/cmn"
)

// Provider adapts the package-level Hash/Encrypt/Decrypt functions to
// bridge.CryptoExecutor's string-in/string-out host ABI: data and keys are
// hex-encoded on the wire, the convention crypto_hash/crypto_encrypt/
// crypto_decrypt use for opaque byte payloads crossing the guest boundary.
type Provider struct{}

func NewProvider() *Provider { return &Provider{} }

func (p *Provider) Hash(ctx context.Context, algorithm, data string) (string, error) {
	raw, err := hex.DecodeString(data)
	if err != nil {
		return "", cmn.Validationf("crypto.Provider.Hash", "data must be hex-encoded: %v", err)
	}
	digest, err := Hash(HashAlgorithm(algorithm), raw)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

func (p *Provider) Encrypt(ctx context.Context, algorithm, key, data string) (string, error) {
	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return "", cmn.Validationf("crypto.Provider.Encrypt", "key must be hex-encoded: %v", err)
	}
	dataBytes, err := hex.DecodeString(data)
	if err != nil {
		return "", cmn.Validationf("crypto.Provider.Encrypt", "data must be hex-encoded: %v", err)
	}
	result, err := Encrypt(Key{Algorithm: algorithm, Data: keyBytes}, dataBytes, nil)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(result), nil
}

func (p *Provider) Decrypt(ctx context.Context, algorithm, key, data string) (string, error) {
	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return "", cmn.Validationf("crypto.Provider.Decrypt", "key must be hex-encoded: %v", err)
	}
	dataBytes, err := hex.DecodeString(data)
	if err != nil {
		return "", cmn.Validationf("crypto.Provider.Decrypt", "data must be hex-encoded: %v", err)
	}
	result, err := Decrypt(Key{Algorithm: algorithm, Data: keyBytes}, dataBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(result), nil
}
