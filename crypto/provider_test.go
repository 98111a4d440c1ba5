// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto_test

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/dotlanth/dotvm/crypto"
)

func TestProviderHashRoundTrip(t *testing.T) {
	p := crypto.NewProvider()
	data := hex.EncodeToString([]byte("payload"))

	digest, err := p.Hash(context.Background(), string(crypto.Sha256), data)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		t.Fatalf("expected hex-encoded digest, got %q", digest)
	}
}

func TestProviderEncryptDecryptRoundTrip(t *testing.T) {
	p := crypto.NewProvider()
	key, err := crypto.GenerateEncryptionKey(crypto.Aes256Gcm)
	if err != nil {
		t.Fatalf("GenerateEncryptionKey: %v", err)
	}
	keyHex := hex.EncodeToString(key.Data)
	dataHex := hex.EncodeToString([]byte("guest payload"))

	ciphertextHex, err := p.Encrypt(context.Background(), string(crypto.Aes256Gcm), keyHex, dataHex)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	plaintextHex, err := p.Decrypt(context.Background(), string(crypto.Aes256Gcm), keyHex, ciphertextHex)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	plaintext, _ := hex.DecodeString(plaintextHex)
	if string(plaintext) != "guest payload" {
		t.Fatalf("plaintext = %q, want %q", plaintext, "guest payload")
	}
}

func TestProviderHashRejectsNonHexData(t *testing.T) {
	p := crypto.NewProvider()
	if _, err := p.Hash(context.Background(), string(crypto.Sha256), "not-hex!"); err == nil {
		t.Fatalf("expected error for non-hex input")
	}
}
