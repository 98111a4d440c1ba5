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

	"github.com/dotlanth/dotvm/crypto"
)

func TestAes256GcmEncryptDecryptRoundTrip(t *testing.T) {
	key, err := crypto.GenerateEncryptionKey(crypto.Aes256Gcm)
	if err != nil {
		t.Fatalf("GenerateEncryptionKey: %v", err)
	}

	plaintext := []byte("document payload")
	ciphertext, err := crypto.Encrypt(key, plaintext, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(ciphertext) <= len(plaintext) {
		t.Fatalf("ciphertext should carry a prepended nonce and auth tag")
	}

	decrypted, err := crypto.Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestChaCha20Poly1305EncryptDecryptRoundTrip(t *testing.T) {
	key, err := crypto.GenerateEncryptionKey(crypto.ChaCha20Poly1305)
	if err != nil {
		t.Fatalf("GenerateEncryptionKey: %v", err)
	}

	plaintext := []byte("another payload")
	ciphertext, err := crypto.Encrypt(key, plaintext, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	decrypted, err := crypto.Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestDecryptFailsOnTamperedCiphertext(t *testing.T) {
	key, _ := crypto.GenerateEncryptionKey(crypto.Aes256Gcm)
	ciphertext, _ := crypto.Encrypt(key, []byte("sensitive"), nil)
	ciphertext[len(ciphertext)-1] ^= 0xFF

	if _, err := crypto.Decrypt(key, ciphertext); err == nil {
		t.Fatalf("expected decryption to fail on tampered ciphertext")
	}
}

func TestEncryptWithExplicitNonce(t *testing.T) {
	key, _ := crypto.GenerateEncryptionKey(crypto.Aes256Gcm)
	nonce := make([]byte, 12)
	for i := range nonce {
		nonce[i] = byte(i)
	}

	ciphertext, err := crypto.Encrypt(key, []byte("payload"), nonce)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.Equal(ciphertext[:12], nonce) {
		t.Fatalf("expected explicit nonce to be prepended to ciphertext")
	}
}
