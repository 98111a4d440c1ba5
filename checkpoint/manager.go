// Package checkpoint implements the checkpoint manager: periodic
// consistent snapshots of the key-value store with integrity checksums,
// atomic write-then-rename persistence, and retention pruning.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"
	"github.com/karrick/godirwalk"
	"github.com/klauspost/reedsolomon"
	"github.com/pierrec/lz4/v3"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/kv"
	"github.com/dotlanth/dotvm/wal"
)

const fileSuffix = ".ckpt"

// kvEntry is one key/value pair in a checkpoint's serialized data section.
type kvEntry struct {
	Key   []byte `json:"k"`
	Value []byte `json:"v"`
}

// Manager is the checkpoint manager. It snapshots a kv.Store's full
// contents (rather than raw backing-file bytes) so the same manager works
// against any Store implementation, and replays wal.Log records newer than
// the snapshot's LSN watermark on restore.
type Manager struct {
	mu      sync.Mutex
	dir     string
	store   kv.Store
	log     wal.Log
	cfg     Config
	lastRun time.Time

	// redundancy, when > 0, splits each checkpoint's compressed data blob
	// into dataShards+paritySh shards via Reed-Solomon so that up to
	// paritySh shard files can be lost without losing the checkpoint.
	dataShards, paritySh int
}

// New creates a checkpoint manager rooted at dir, snapshotting store and
// consulting log for the LSN watermark.
func New(dir string, store kv.Store, log wal.Log, cfg Config) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cmn.NewError(cmn.KindUnavailable, "checkpoint.New", "cannot create checkpoint dir", err)
	}
	return &Manager{dir: dir, store: store, log: log, cfg: cfg}, nil
}

// EnableRedundancy turns on Reed-Solomon sharding of future checkpoints'
// data sections across dataShards+paritySh files.
func (m *Manager) EnableRedundancy(dataShards, paritySh int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataShards, m.paritySh = dataShards, paritySh
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+fileSuffix)
}

// CreateCheckpoint snapshots the current store contents: (1) capture the
// LSN watermark, (2) serialize + compress the data, (3) compute the
// checksum over (metadata || data) with size computed upfront so metadata
// is written exactly once, (4) write atomically via temp-then-rename,
// (5) prune to MaxCheckpoints.
func (m *Manager) CreateCheckpoint() (*Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lsn uint64
	if m.log != nil {
		lsn = m.log.LastLSN()
	}

	data, err := m.snapshotData()
	if err != nil {
		return nil, cmn.NewError(cmn.KindUnavailable, "checkpoint.Create", "failed to snapshot data", err)
	}
	compressed, err := compress(data)
	if err != nil {
		return nil, cmn.NewError(cmn.KindInternal, "checkpoint.Create", "compression failed", err)
	}

	id := cmn.GenShortID()

	dataFiles := []string{id + fileSuffix}
	if m.dataShards > 0 {
		dataFiles = shardNames(id, m.dataShards, m.paritySh)
	}

	meta := &Metadata{
		ID:           id,
		Timestamp:    time.Now().UTC(),
		Version:      "1",
		LSNAtCapture: lsn,
		DataFiles:    dataFiles,
		Size:         int64(len(compressed)),
	}
	// Size is final at this point, so metadata is marshaled exactly once:
	// the checksum is computed with Checksum left at its zero value, then
	// patched into the already-sized struct before the single final
	// marshal.
	zeroCksumBytes, err := jsoniter.Marshal(meta)
	if err != nil {
		return nil, cmn.NewError(cmn.KindInternal, "checkpoint.Create", "metadata marshal failed", err)
	}
	meta.Checksum = cmn.Checksum(zeroCksumBytes, compressed)
	metaBytes, err := jsoniter.Marshal(meta)
	if err != nil {
		return nil, cmn.NewError(cmn.KindInternal, "checkpoint.Create", "metadata marshal failed", err)
	}

	if err := m.writeAtomic(m.path(id), metaBytes, compressed); err != nil {
		return nil, err
	}
	if m.dataShards > 0 {
		if err := m.writeShards(id, compressed); err != nil {
			return nil, err
		}
	}

	m.lastRun = meta.Timestamp
	if err := m.prune(); err != nil {
		return nil, err
	}
	glog.Infof("checkpoint: created %s (lsn %d, %d bytes)", id, lsn, len(compressed))
	return meta, nil
}

func (m *Manager) writeAtomic(path string, metaBytes, data []byte) error {
	var buf bytes.Buffer
	var lenHdr [4]byte
	binary.LittleEndian.PutUint32(lenHdr[:], uint32(len(metaBytes)))
	buf.Write(lenHdr[:])
	buf.Write(metaBytes)
	buf.Write(data)

	tmp := path + ".tmp." + cmn.GenTie()
	f, err := cmn.CreateFile(tmp)
	if err != nil {
		return cmn.NewError(cmn.KindUnavailable, "checkpoint.Create", "cannot create temp file", err)
	}
	if _, err := buf.WriteTo(f); err != nil {
		f.Close()
		cmn.RemoveFile(tmp)
		return cmn.NewError(cmn.KindUnavailable, "checkpoint.Create", "write failed", err)
	}
	if err := cmn.FlushClose(f); err != nil {
		cmn.RemoveFile(tmp)
		return cmn.NewError(cmn.KindUnavailable, "checkpoint.Create", "flush/close failed", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		cmn.RemoveFile(tmp)
		return cmn.NewError(cmn.KindUnavailable, "checkpoint.Create", "rename failed", err)
	}
	return nil
}

func (m *Manager) writeShards(id string, data []byte) error {
	enc, err := reedsolomon.New(m.dataShards, m.paritySh)
	if err != nil {
		return cmn.NewError(cmn.KindInternal, "checkpoint.Create", "reedsolomon.New failed", err)
	}
	shards, err := enc.Split(data)
	if err != nil {
		return cmn.NewError(cmn.KindInternal, "checkpoint.Create", "shard split failed", err)
	}
	if err := enc.Encode(shards); err != nil {
		return cmn.NewError(cmn.KindInternal, "checkpoint.Create", "parity encode failed", err)
	}
	for i, shard := range shards {
		name := shardNames(id, m.dataShards, m.paritySh)[i]
		if err := m.writeAtomic(filepath.Join(m.dir, name), []byte("{}"), shard); err != nil {
			return err
		}
	}
	return nil
}

func shardNames(id string, data, parity int) []string {
	names := make([]string, data+parity)
	for i := range names {
		names[i] = fmt.Sprintf("%s.shard%d%s", id, i, fileSuffix)
	}
	return names
}

// RestoreFrom loads the checkpoint identified by id, verifies its checksum
// (when the manager's config enables verification), clears and repopulates
// the store from the snapshot, then replays any WAL records with
// lsn > checkpoint.LSNAtCapture.
func (m *Manager) RestoreFrom(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta, data, err := m.readFile(m.path(id))
	if err != nil {
		return err
	}

	raw, err := decompress(data)
	if err != nil {
		return cmn.NewError(cmn.KindIntegrity, "checkpoint.Restore", "decompression failed", err)
	}
	entries, err := decodeEntries(raw)
	if err != nil {
		return cmn.NewError(cmn.KindIntegrity, "checkpoint.Restore", "data decode failed", err)
	}

	if err := m.clearStore(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.store.Put(e.Key, e.Value); err != nil {
			return cmn.NewError(cmn.KindUnavailable, "checkpoint.Restore", "replay put failed", err)
		}
	}

	if m.log != nil {
		err := m.log.IterateFrom(meta.LSNAtCapture, func(r *wal.Record) error {
			return m.applyRecord(r)
		})
		if err != nil {
			return cmn.NewError(cmn.KindIntegrity, "checkpoint.Restore", "WAL replay failed", err)
		}
	}
	glog.Infof("checkpoint: restored %s (lsn %d, %d entries)", id, meta.LSNAtCapture, len(entries))
	return nil
}

func (m *Manager) applyRecord(r *wal.Record) error {
	switch r.Kind {
	case wal.KindPut:
		var p wal.PutPayload
		if err := wal.UnmarshalPayload(r.Payload, &p); err != nil {
			return err
		}
		return m.store.Put(p.Key, p.Value)
	case wal.KindDelete:
		var p wal.DeletePayload
		if err := wal.UnmarshalPayload(r.Payload, &p); err != nil {
			return err
		}
		_, err := m.store.Delete(p.Key)
		return err
	default:
		return nil // txn markers carry no direct KV effect here
	}
}

func (m *Manager) clearStore() error {
	var keys [][]byte
	if err := m.store.Scan(nil, func(k, v []byte) bool {
		cp := make([]byte, len(k))
		copy(cp, k)
		keys = append(keys, cp)
		return true
	}); err != nil {
		return cmn.NewError(cmn.KindUnavailable, "checkpoint.Restore", "scan failed", err)
	}
	for _, k := range keys {
		if _, err := m.store.Delete(k); err != nil {
			return cmn.NewError(cmn.KindUnavailable, "checkpoint.Restore", "clear failed", err)
		}
	}
	return nil
}

func (m *Manager) readFile(path string) (*Metadata, []byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, cmn.NewError(cmn.KindNotFound, "checkpoint.Restore", "checkpoint file not found", err)
	}
	if len(b) < 4 {
		return nil, nil, cmn.NewError(cmn.KindIntegrity, "checkpoint.Restore", "truncated checkpoint file", nil)
	}
	metaLen := binary.LittleEndian.Uint32(b[:4])
	if uint32(len(b)) < 4+metaLen {
		return nil, nil, cmn.NewError(cmn.KindIntegrity, "checkpoint.Restore", "truncated metadata section", nil)
	}
	metaBytes := b[4 : 4+metaLen]
	data := b[4+metaLen:]

	var meta Metadata
	if err := jsoniter.Unmarshal(metaBytes, &meta); err != nil {
		return nil, nil, cmn.NewError(cmn.KindIntegrity, "checkpoint.Restore", "metadata decode failed", err)
	}

	if m.cfg.VerificationEnabled {
		want := meta.Checksum
		zeroed := meta
		zeroed.Checksum = 0
		zeroCksumBytes, err := jsoniter.Marshal(&zeroed)
		if err != nil {
			return nil, nil, cmn.NewError(cmn.KindInternal, "checkpoint.Restore", "metadata re-marshal failed", err)
		}
		got := cmn.Checksum(zeroCksumBytes, data)
		if got != want {
			return nil, nil, cmn.NewError(cmn.KindIntegrity, "checkpoint.Restore", "checksum mismatch", nil)
		}
	}
	return &meta, data, nil
}

// List returns all checkpoints sorted by timestamp, most recent first.
func (m *Manager) List() ([]*Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list()
}

func (m *Manager) list() ([]*Metadata, error) {
	var metas []*Metadata
	err := godirwalk.Walk(m.dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(path, fileSuffix) || strings.Contains(path, ".shard") {
				return nil
			}
			meta, _, err := m.readFile(path)
			if err != nil {
				return nil // skip unreadable/corrupt entries rather than fail List
			}
			metas = append(metas, meta)
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, cmn.NewError(cmn.KindUnavailable, "checkpoint.List", "directory walk failed", err)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Timestamp.After(metas[j].Timestamp) })
	return metas, nil
}

// Latest returns the most recent checkpoint, or nil if none exist.
func (m *Manager) Latest() (*Metadata, error) {
	metas, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, nil
	}
	return metas[0], nil
}

// ShouldCreate reports whether AutoInterval has elapsed since the last
// checkpoint this manager created.
func (m *Manager) ShouldCreate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastRun.IsZero() {
		return true
	}
	return time.Since(m.lastRun) >= m.cfg.AutoInterval
}

// prune keeps the newest MaxCheckpoints checkpoints, deleting older ones by
// timestamp. Must be called with m.mu held.
func (m *Manager) prune() error {
	metas, err := m.list()
	if err != nil {
		return err
	}
	if len(metas) <= m.cfg.MaxCheckpoints {
		return nil
	}
	for _, old := range metas[m.cfg.MaxCheckpoints:] {
		os.Remove(m.path(old.ID))
		for _, f := range old.DataFiles {
			os.Remove(filepath.Join(m.dir, f))
		}
	}
	return nil
}

func (m *Manager) snapshotData() ([]byte, error) {
	var entries []kvEntry
	err := m.store.Scan(nil, func(k, v []byte) bool {
		kc := make([]byte, len(k))
		copy(kc, k)
		vc := make([]byte, len(v))
		copy(vc, v)
		entries = append(entries, kvEntry{Key: kc, Value: vc})
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].Key, entries[j].Key) < 0 })
	return jsoniter.Marshal(entries)
}

func decodeEntries(b []byte) ([]kvEntry, error) {
	var entries []kvEntry
	if err := jsoniter.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}
