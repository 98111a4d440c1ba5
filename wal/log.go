// Package wal implements the write-ahead log: before any mutation
// becomes externally visible, its record is appended, fsync'd, and assigned
// the next LSN. LSNs are strictly increasing and gap-free; no durable
// record is ever silently overwritten.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package wal

import (
	"encoding/binary"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/cmn/jsp"
)

// Log is the write-ahead log interface.
type Log interface {
	// Append durably records r, assigning and returning the next LSN.
	// Append failure is fatal to the in-flight mutation: the LSN counter is
	// rolled back and no partial record is left on disk.
	Append(kind Kind, payload []byte) (lsn uint64, err error)
	// IterateFrom streams every record with lsn > from, in LSN order.
	IterateFrom(from uint64, fn func(*Record) error) error
	// TruncateUpTo discards records with lsn <= upTo. Legal only once the
	// caller (the checkpoint manager) attests every such record is
	// checkpointed or aborted.
	TruncateUpTo(upTo uint64) error
	// LastLSN returns the most recently assigned LSN, or 0 if the log is
	// empty.
	LastLSN() uint64
	Close() error
}

// FileLog is a single-writer-appender WAL backed by one file: each record
// is length-prefixed and fsync'd before Append returns. Truncation
// rewrites through a temp file (jsp.Save's discipline); the hot path is a
// plain append+fsync.
type FileLog struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	nextLSN uint64
}

// OpenFileLog opens or creates the log at path and, if it already contains
// records, recovers nextLSN from the last one. Read failure during recovery
// is fatal to startup.
func OpenFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, cmn.NewError(cmn.KindUnavailable, "wal.Open", "cannot open log file", err)
	}
	l := &FileLog{path: path, file: f}
	last, err := l.recoverLastLSN()
	if err != nil {
		f.Close()
		return nil, cmn.NewError(cmn.KindIntegrity, "wal.Open", "recovery scan failed, aborting startup", err)
	}
	l.nextLSN = last + 1
	if last > 0 {
		glog.Infof("wal: recovered %s, last lsn %d", path, last)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, cmn.NewError(cmn.KindUnavailable, "wal.Open", "cannot seek to end", err)
	}
	return l, nil
}

func (l *FileLog) recoverLastLSN() (uint64, error) {
	var last uint64
	err := forEachFrame(l.file, func(rec *Record) error {
		last = rec.LSN
		return nil
	})
	return last, err
}

func (l *FileLog) Append(kind Kind, payload []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lsn := l.nextLSN
	rec := &Record{LSN: lsn, TimestampMillis: nowMillis(), Kind: kind, Payload: payload}
	body := rec.encode()

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)

	off, err := l.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, cmn.NewError(cmn.KindUnavailable, "wal.Append", "cannot read log offset", err)
	}
	if _, err := l.file.Write(frame); err != nil {
		l.file.Truncate(off)
		l.file.Seek(off, io.SeekStart)
		return 0, cmn.NewError(cmn.KindUnavailable, "wal.Append", "write failed, mutation rolled back", err)
	}
	if err := l.file.Sync(); err != nil {
		l.file.Truncate(off)
		l.file.Seek(off, io.SeekStart)
		return 0, cmn.NewError(cmn.KindUnavailable, "wal.Append", "fsync failed, mutation rolled back", err)
	}
	l.nextLSN++
	return lsn, nil
}

func (l *FileLog) IterateFrom(from uint64, fn func(*Record) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return cmn.NewError(cmn.KindUnavailable, "wal.IterateFrom", "cannot reopen log", err)
	}
	defer f.Close()

	return forEachFrame(f, func(rec *Record) error {
		if rec.LSN <= from {
			return nil
		}
		return fn(rec)
	})
}

func (l *FileLog) TruncateUpTo(upTo uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return cmn.NewError(cmn.KindUnavailable, "wal.TruncateUpTo", "cannot reopen log", err)
	}
	var kept []byte
	scanErr := forEachFrame(f, func(rec *Record) error {
		if rec.LSN <= upTo {
			return nil
		}
		body := rec.encode()
		hdr := make([]byte, 4)
		binary.BigEndian.PutUint32(hdr, uint32(len(body)))
		kept = append(kept, hdr...)
		kept = append(kept, body...)
		return nil
	})
	f.Close()
	if scanErr != nil {
		return cmn.NewError(cmn.KindIntegrity, "wal.TruncateUpTo", "scan failed", scanErr)
	}

	if err := jsp.Save(l.path, kept); err != nil {
		return cmn.NewError(cmn.KindUnavailable, "wal.TruncateUpTo", "rewrite failed", err)
	}

	l.file.Close()
	f2, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return cmn.NewError(cmn.KindUnavailable, "wal.TruncateUpTo", "cannot reopen after rewrite", err)
	}
	if _, err := f2.Seek(0, io.SeekEnd); err != nil {
		f2.Close()
		return cmn.NewError(cmn.KindUnavailable, "wal.TruncateUpTo", "cannot seek to end", err)
	}
	l.file = f2
	return nil
}

func (l *FileLog) LastLSN() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nextLSN == 0 {
		return 0
	}
	return l.nextLSN - 1
}

func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func forEachFrame(f *os.File, fn func(*Record) error) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r := &frameReader{f: f}
	for {
		body, err := r.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		rec, _, err := decodeRecord(body)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

type frameReader struct {
	f *os.File
}

func (r *frameReader) next() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r.f, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r.f, body); err != nil {
		return nil, err
	}
	return body, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
