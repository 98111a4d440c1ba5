// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

// HashAlgorithm selects the digest function Hash uses.
type HashAlgorithm string

const (
	Sha256    HashAlgorithm = "Sha256"
	Blake3    HashAlgorithm = "Blake3"
	Keccak256 HashAlgorithm = "Keccak256"
)

// SignatureAlgorithm selects the signing scheme Sign/Verify/GenerateKeyPair
// use.
type SignatureAlgorithm string

const (
	Ed25519         SignatureAlgorithm = "Ed25519"
	EcdsaSecp256k1  SignatureAlgorithm = "EcdsaSecp256k1"
)

// EncryptionAlgorithm selects the AEAD cipher Encrypt/Decrypt use.
type EncryptionAlgorithm string

const (
	Aes256Gcm       EncryptionAlgorithm = "Aes256Gcm"
	ChaCha20Poly1305 EncryptionAlgorithm = "ChaCha20Poly1305"
)

// nonceSize is the AEAD nonce length every supported cipher in this
// package uses; it is the number of bytes prepended to ciphertext.
const nonceSize = 12

// Key is an algorithm-tagged key blob: a signing key (private or public)
// or an encryption key, depending on context.
type Key struct {
	Algorithm string
	Data      []byte
}
