// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"crypto/sha256"

	"github.com/dotlanth/dotvm/cmn"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// Hash digests data with algorithm. Keccak256 uses the legacy Keccak
// padding Ethereum expects, not the later NIST SHA3 padding.
func Hash(algorithm HashAlgorithm, data []byte) ([]byte, error) {
	switch algorithm {
	case Sha256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case Blake3:
		sum := blake3.Sum256(data)
		return sum[:], nil
	case Keccak256:
		h := sha3.NewLegacyKeccak256()
		h.Write(data)
		return h.Sum(nil), nil
	default:
		return nil, cmn.Validationf("crypto.Hash", "unsupported hash algorithm %q", algorithm)
	}
}
