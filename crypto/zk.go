// Package crypto implements the pluggable cryptographic provider: hash,
// sign/verify, encrypt/decrypt, secure randomness, and a ZK proof
// interface.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"github.com/dotlanth/dotvm/cmn"
)

// ZkProvider generates and verifies zero-knowledge proofs over an
// abstract circuit description and witness.
type ZkProvider interface {
	GenerateProof(circuitData, witness []byte) ([]byte, error)
	VerifyProof(proof, publicInputs []byte) (bool, error)
}

// PlaceholderZkProvider refuses every proof request. Deployments without
// a proving backend wire this so crypto opcodes still resolve; a real
// provider satisfies the same interface.
type PlaceholderZkProvider struct{}

func NewPlaceholderZkProvider() PlaceholderZkProvider { return PlaceholderZkProvider{} }

func (PlaceholderZkProvider) GenerateProof(circuitData, witness []byte) ([]byte, error) {
	return nil, cmn.NewError(cmn.KindUnavailable, "crypto.GenerateProof", "ZK proofs not implemented in placeholder provider", nil)
}

func (PlaceholderZkProvider) VerifyProof(proof, publicInputs []byte) (bool, error) {
	return false, cmn.NewError(cmn.KindUnavailable, "crypto.VerifyProof", "ZK verification not implemented in placeholder provider", nil)
}
