// Package wal implements the write-ahead log: before any mutation
// becomes externally visible, its record is appended, fsync'd, and assigned
// the next LSN. LSNs are strictly increasing and gap-free; no durable
// record is ever silently overwritten.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package wal

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/tinylib/msgp/msgp"
)

// Kind is the WAL record kind.
type Kind uint8

const (
	KindPut Kind = iota
	KindDelete
	KindBeginTxn
	KindCommitTxn
	KindAbortTxn
)

func (k Kind) String() string {
	switch k {
	case KindPut:
		return "put"
	case KindDelete:
		return "delete"
	case KindBeginTxn:
		return "begin_txn"
	case KindCommitTxn:
		return "commit_txn"
	case KindAbortTxn:
		return "abort_txn"
	default:
		return "unknown"
	}
}

// PutPayload is the payload for a KindPut record.
type PutPayload struct {
	TableID string `json:"table_id"`
	Key     []byte `json:"key"`
	Value   []byte `json:"value"`
}

// DeletePayload is the payload for a KindDelete record.
type DeletePayload struct {
	TableID string `json:"table_id"`
	Key     []byte `json:"key"`
}

// TxnPayload is the payload for begin/commit/abort records.
type TxnPayload struct {
	TxnID string `json:"txn_id"`
}

// Record is a single durable WAL entry. Payload is the
// jsoniter-encoded form of one of the *Payload types above, selected by Kind.
type Record struct {
	LSN             uint64
	TimestampMillis int64
	Kind            Kind
	Payload         []byte
}

// encode frames a Record using the msgp runtime library's append helpers:
// each field is appended in order with no generated code, the way a small
// hand-rolled msgp encoder looks. This keeps the on-disk representation
// compact relative to JSON-per-record while the payload itself stays JSON
// for readability during recovery debugging.
func (r *Record) encode() []byte {
	var b []byte
	b = msgp.AppendUint64(b, r.LSN)
	b = msgp.AppendInt64(b, r.TimestampMillis)
	b = msgp.AppendUint8(b, uint8(r.Kind))
	b = msgp.AppendBytes(b, r.Payload)
	return b
}

func decodeRecord(b []byte) (*Record, []byte, error) {
	r := &Record{}
	var err error
	r.LSN, b, err = msgp.ReadUint64Bytes(b)
	if err != nil {
		return nil, nil, err
	}
	r.TimestampMillis, b, err = msgp.ReadInt64Bytes(b)
	if err != nil {
		return nil, nil, err
	}
	var kind uint8
	kind, b, err = msgp.ReadUint8Bytes(b)
	if err != nil {
		return nil, nil, err
	}
	r.Kind = Kind(kind)
	r.Payload, b, err = msgp.ReadBytesBytes(b, nil)
	if err != nil {
		return nil, nil, err
	}
	return r, b, nil
}

// MarshalPayload encodes a *Payload value (PutPayload, DeletePayload,
// TxnPayload) for embedding in a Record.
func MarshalPayload(v interface{}) []byte {
	b, err := jsoniter.Marshal(v)
	if err != nil {
		// payload types are fixed, trivially-serializable structs; a
		// marshal failure here is a programming error, not bad input.
		panic(err)
	}
	return b
}

// UnmarshalPayload decodes a Record's Payload into v.
func UnmarshalPayload(b []byte, v interface{}) error {
	return jsoniter.Unmarshal(b, v)
}
