// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/dotlanth/dotvm/cmn"
	"golang.org/x/crypto/chacha20poly1305"
)

const encryptionKeySize = 32

// GenerateEncryptionKey produces a random 32-byte key for algorithm.
func GenerateEncryptionKey(algorithm EncryptionAlgorithm) (Key, error) {
	switch algorithm {
	case Aes256Gcm, ChaCha20Poly1305:
		data := make([]byte, encryptionKeySize)
		if _, err := rand.Read(data); err != nil {
			return Key{}, cmn.NewError(cmn.KindInternal, "crypto.GenerateEncryptionKey", "random key generation failed", err)
		}
		return Key{Algorithm: string(algorithm), Data: data}, nil
	default:
		return Key{}, cmn.Validationf("crypto.GenerateEncryptionKey", "unsupported encryption algorithm %q", algorithm)
	}
}

func aeadFor(key Key) (cipher.AEAD, error) {
	if len(key.Data) != encryptionKeySize {
		return nil, cmn.Validationf("crypto.aeadFor", "%s key must be %d bytes", key.Algorithm, encryptionKeySize)
	}
	switch EncryptionAlgorithm(key.Algorithm) {
	case Aes256Gcm:
		block, err := aes.NewCipher(key.Data)
		if err != nil {
			return nil, cmn.NewError(cmn.KindInternal, "crypto.aeadFor", "failed to create AES cipher", err)
		}
		return cipher.NewGCM(block)
	case ChaCha20Poly1305:
		return chacha20poly1305.New(key.Data)
	default:
		return nil, cmn.Validationf("crypto.aeadFor", "unsupported encryption algorithm %q", key.Algorithm)
	}
}

// Encrypt seals data under key and prepends the nonce to the returned
// ciphertext. A nil nonce means generate 12 random bytes; an explicit
// nonce must be exactly 12 bytes.
func Encrypt(key Key, data, nonce []byte) ([]byte, error) {
	aead, err := aeadFor(key)
	if err != nil {
		return nil, err
	}

	n := nonce
	if n == nil {
		n = make([]byte, nonceSize)
		if _, err := rand.Read(n); err != nil {
			return nil, cmn.NewError(cmn.KindInternal, "crypto.Encrypt", "nonce generation failed", err)
		}
	} else if len(n) != nonceSize {
		return nil, cmn.Validationf("crypto.Encrypt", "%s nonce must be %d bytes", key.Algorithm, nonceSize)
	}

	sealed := aead.Seal(nil, n, data, nil)
	result := make([]byte, 0, len(n)+len(sealed))
	result = append(result, n...)
	result = append(result, sealed...)
	return result, nil
}

// Decrypt opens a ciphertext produced by Encrypt, splitting the leading
// nonce off encryptedData.
func Decrypt(key Key, encryptedData []byte) ([]byte, error) {
	if len(encryptedData) < nonceSize {
		return nil, cmn.Validationf("crypto.Decrypt", "encrypted data too short")
	}
	aead, err := aeadFor(key)
	if err != nil {
		return nil, err
	}

	n, ciphertext := encryptedData[:nonceSize], encryptedData[nonceSize:]
	plaintext, err := aead.Open(nil, n, ciphertext, nil)
	if err != nil {
		return nil, cmn.NewError(cmn.KindSecurity, "crypto.Decrypt", "decryption failed", err)
	}
	return plaintext, nil
}
