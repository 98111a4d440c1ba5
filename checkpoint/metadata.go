// Package checkpoint implements the checkpoint manager: periodic
// consistent snapshots of the key-value store with integrity checksums,
// atomic write-then-rename persistence, and retention pruning.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package checkpoint

import "time"

// Metadata is a checkpoint's self-describing header: replay
// of WAL records with lsn > LSNAtCapture reconstructs current state from the
// checkpoint.
type Metadata struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	LSNAtCapture uint64    `json:"lsn_at_capture"`
	DataFiles    []string  `json:"data_file_list"`
	Size         int64     `json:"size"`
	Checksum     uint64    `json:"checksum"`
}

// Config are the checkpoint retention and verification knobs.
type Config struct {
	MaxCheckpoints      int
	AutoInterval        time.Duration
	VerificationEnabled bool
}

func DefaultConfig() Config {
	return Config{MaxCheckpoints: 10, AutoInterval: 5 * time.Minute, VerificationEnabled: true}
}
