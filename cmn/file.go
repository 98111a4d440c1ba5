// Package cmn provides common types and utilities shared across the storage,
// compilation, and execution layers: the error taxonomy, global configuration,
// identifier generation, and small atomic-file helpers.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"os"
	"path/filepath"
)

// CreateFile creates (or truncates) a file, including parent
// directories.
func CreateFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// FlushClose fsyncs then closes f: durability is not claimed until
// fsync returns.
func FlushClose(f *os.File) error {
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RemoveFile is a best-effort cleanup used on the failure path of an atomic
// write (see cmn/jsp.Save).
func RemoveFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Checksum computes the wrapping-add u64 checksum over a checkpoint's
// (metadata || data) bytes: sum of bytes widened to u64,
// wrapping on overflow. It is corruption detection, not tamper-proofing.
func Checksum(parts ...[]byte) uint64 {
	var sum uint64
	for _, p := range parts {
		for _, b := range p {
			sum += uint64(b)
		}
	}
	return sum
}
