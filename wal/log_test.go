// Package wal implements the write-ahead log: before any mutation
// becomes externally visible, its record is appended, fsync'd, and assigned
// the next LSN. LSNs are strictly increasing and gap-free; no durable
// record is ever silently overwritten.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package wal_test

import (
	"path/filepath"
	"testing"

	"github.com/dotlanth/dotvm/cmn/tassert"
	"github.com/dotlanth/dotvm/wal"
)

func openTestLog(t *testing.T) *wal.FileLog {
	t.Helper()
	dir := t.TempDir()
	l, err := wal.OpenFileLog(filepath.Join(dir, "wal.log"))
	tassert.CheckFatal(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAssignsMonotonicLSNs(t *testing.T) {
	l := openTestLog(t)
	var lsns []uint64
	for i := 0; i < 5; i++ {
		lsn, err := l.Append(wal.KindPut, []byte("payload"))
		tassert.CheckFatal(t, err)
		lsns = append(lsns, lsn)
	}
	for i, lsn := range lsns {
		tassert.Fatalf(t, lsn == uint64(i+1), "lsn[%d] = %d, want %d", i, lsn, i+1)
	}
	tassert.Errorf(t, l.LastLSN() == 5, "LastLSN = %d, want 5", l.LastLSN())
}

func TestIterateFromReturnsOnlyNewer(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 5; i++ {
		_, err := l.Append(wal.KindPut, []byte("p"))
		tassert.CheckFatal(t, err)
	}
	var seen []uint64
	err := l.IterateFrom(2, func(r *wal.Record) error {
		seen = append(seen, r.LSN)
		return nil
	})
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(seen) == 3 && seen[0] == 3, "seen = %v, want [3 4 5]", seen)
}

func TestTruncateUpToDropsOldRecords(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 5; i++ {
		_, err := l.Append(wal.KindPut, []byte("p"))
		tassert.CheckFatal(t, err)
	}
	tassert.CheckFatal(t, l.TruncateUpTo(3))
	var remaining []uint64
	err := l.IterateFrom(0, func(r *wal.Record) error {
		remaining = append(remaining, r.LSN)
		return nil
	})
	tassert.CheckFatal(t, err)
	tassert.Fatalf(t, len(remaining) == 2 && remaining[0] == 4 && remaining[1] == 5,
		"remaining = %v, want [4 5]", remaining)
}

func TestRecoveryRestoresNextLSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")
	l, err := wal.OpenFileLog(path)
	tassert.CheckFatal(t, err)
	for i := 0; i < 3; i++ {
		_, err := l.Append(wal.KindPut, []byte("p"))
		tassert.CheckFatal(t, err)
	}
	l.Close()

	l2, err := wal.OpenFileLog(path)
	tassert.CheckFatal(t, err)
	defer l2.Close()
	lsn, err := l2.Append(wal.KindPut, []byte("p"))
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, lsn == 4, "lsn after reopen = %d, want 4", lsn)
}
