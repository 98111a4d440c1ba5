// Package cmn provides common types and utilities shared across the storage,
// compilation, and execution layers: the error taxonomy, global configuration,
// identifier generation, and small atomic-file helpers.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

// Alphabet for generating short ids (len > 0x3f matters for GenTie's
// bit masking below).
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var (
	sid  *shortid.Shortid
	rtie int32
)

func init() {
	InitIDGen(0)
}

// InitIDGen (re)seeds the short-id generator. Tests call this with a fixed
// seed for reproducible ids.
func InitIDGen(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
}

// GenShortID generates a short, human-readable id for documents, tasks, and
// checkpoints: entities that are created at high frequency and benefit from
// brevity over global cross-process uniqueness.
func GenShortID() string {
	return sid.MustGenerate()
}

// GenUUID generates a globally unique id for state transitions and deployed
// dots, where uniqueness must hold across process restarts and nodes even
// though this system's finality itself is single-node.
func GenUUID() string {
	return uuid.New().String()
}

// GenTie produces a short, monotonically-varying tiebreaker string used to
// name temporary files during atomic writes (see jsp.Save and the
// checkpoint writer).
func GenTie() string {
	tie := atomic.AddInt32(&rtie, 1)
	b0 := uuidABC[tie&0x3f]
	b1 := uuidABC[-tie&0x3f]
	b2 := uuidABC[(tie>>2)&0x3f]
	return string([]byte{b0, b1, b2})
}
