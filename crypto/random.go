// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/dotlanth/dotvm/cmn"
)

// GenerateBytes fills a count-byte slice from a CSPRNG.
func GenerateBytes(count int) ([]byte, error) {
	if count < 0 {
		return nil, cmn.Validationf("crypto.GenerateBytes", "count must be non-negative, got %d", count)
	}
	bytes := make([]byte, count)
	if _, err := rand.Read(bytes); err != nil {
		return nil, cmn.NewError(cmn.KindInternal, "crypto.GenerateBytes", "random byte generation failed", err)
	}
	return bytes, nil
}

// GenerateUint64 returns a random uint64.
func GenerateUint64() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, cmn.NewError(cmn.KindInternal, "crypto.GenerateUint64", "random u64 generation failed", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
