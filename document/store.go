// Package document implements the document store: collections of
// content-addressed JSON documents atop the key-value interface, with every
// mutation recorded in the write-ahead log before it becomes visible.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package document

import (
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/kv"
	"github.com/dotlanth/dotvm/wal"
)

// Store is the document store. Every mutation is recorded in the
// injected wal.Log before the corresponding kv.Store write: the WAL/KV
// coupling is enforced here, above the key-value interface, not inside
// the KV provider.
type Store struct {
	kv  kv.Store
	wal wal.Log

	lockCollections bool
	colLocks        sync.Map // collection name -> *sync.Mutex
}

// New creates a document store atop kv backed by log for durability. log
// may be nil, in which case mutations are applied to kv directly with no
// WAL record (useful for tests that exercise document semantics in
// isolation from recovery).
func New(store kv.Store, log wal.Log) *Store {
	return &Store{kv: store, wal: log}
}

// WithCollectionLocking opts into a per-collection mutex guarding the
// read-modify-write of a collection's document-id index, closing the known
// lost-update race between concurrent writers to the same collection.
// Off by default.
func (s *Store) WithCollectionLocking(enabled bool) *Store {
	s.lockCollections = enabled
	return s
}

func (s *Store) lockFor(collection string) func() {
	if !s.lockCollections {
		return func() {}
	}
	v, _ := s.colLocks.LoadOrStore(collection, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Store) appendWAL(kind wal.Kind, payload []byte) error {
	if s.wal == nil {
		return nil
	}
	if _, err := s.wal.Append(kind, payload); err != nil {
		return cmn.NewError(cmn.KindUnavailable, "document.appendWAL", "WAL append failed", err)
	}
	return nil
}

// putDurable logs the full KV key and value, then applies the write.
// Replaying the record against a bare kv.Store reproduces the exact same
// mutation, which is what keeps checkpoint-plus-WAL recovery byte-equal.
func (s *Store) putDurable(table string, key, value []byte) error {
	if err := s.appendWAL(wal.KindPut, wal.MarshalPayload(wal.PutPayload{TableID: table, Key: key, Value: value})); err != nil {
		return err
	}
	if err := s.kv.Put(key, value); err != nil {
		return cmn.NewError(cmn.KindUnavailable, "document.putDurable", "storage failure", err)
	}
	return nil
}

func (s *Store) deleteDurable(table string, key []byte) (bool, error) {
	if err := s.appendWAL(wal.KindDelete, wal.MarshalPayload(wal.DeletePayload{TableID: table, Key: key})); err != nil {
		return false, err
	}
	existed, err := s.kv.Delete(key)
	if err != nil {
		return false, cmn.NewError(cmn.KindUnavailable, "document.deleteDurable", "storage failure", err)
	}
	return existed, nil
}

// CreateCollection lazily registers collection if absent. Idempotent: a
// second call for an existing collection is a no-op.
func (s *Store) CreateCollection(name string) error {
	unlock := s.lockFor(name)
	defer unlock()
	return s.ensureCollection(name)
}

func (s *Store) ensureCollection(name string) error {
	exists, err := s.kv.Contains(colMetaKey(name))
	if err != nil {
		return cmn.NewError(cmn.KindUnavailable, "document.ensureCollection", "storage failure", err)
	}
	if exists {
		return nil
	}
	col := &Collection{Name: name, CreatedAt: time.Now().UTC()}
	b, err := jsoniter.Marshal(col)
	if err != nil {
		return cmn.NewError(cmn.KindInternal, "document.ensureCollection", "serialization failure", err)
	}
	if err := s.putDurable(name, colMetaKey(name), b); err != nil {
		return err
	}
	return s.addToCollectionsList(name)
}

func (s *Store) addToCollectionsList(name string) error {
	list, err := s.loadStringList(collectionsKey)
	if err != nil {
		return err
	}
	for _, n := range list {
		if n == name {
			return nil
		}
	}
	list = append(list, name)
	return s.saveStringList(collectionsKey, list)
}

// ListCollections returns every registered collection name.
func (s *Store) ListCollections() ([]string, error) {
	return s.loadStringList(collectionsKey)
}

// DeleteCollection removes collection and cascades deletion of every
// document it owns.
func (s *Store) DeleteCollection(name string) error {
	unlock := s.lockFor(name)
	defer unlock()

	ids, err := s.loadStringList(colDocsKey(name))
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.deleteDurable(name, docKey(name, id)); err != nil {
			return err
		}
	}
	if _, err := s.deleteDurable(name, colDocsKey(name)); err != nil {
		return err
	}
	if _, err := s.deleteDurable(name, colMetaKey(name)); err != nil {
		return err
	}
	list, err := s.loadStringList(collectionsKey)
	if err != nil {
		return err
	}
	filtered := list[:0]
	for _, n := range list {
		if n != name {
			filtered = append(filtered, n)
		}
	}
	return s.saveStringList(collectionsKey, filtered)
}

// CreateDocument inserts doc into collection, failing AlreadyExists if its
// id collides with an existing document. Adding the id to the collection's
// index is itself idempotent: it is added only if absent.
func (s *Store) CreateDocument(collection string, doc *Document) (string, error) {
	unlock := s.lockFor(collection)
	defer unlock()

	if err := s.ensureCollection(collection); err != nil {
		return "", err
	}

	key := docKey(collection, doc.ID)
	exists, err := s.kv.Contains(key)
	if err != nil {
		return "", cmn.NewError(cmn.KindUnavailable, "document.Create", "storage failure", err)
	}
	if exists {
		return "", cmn.AlreadyExistsf("document.Create", "document %q already exists in collection %q", doc.ID, collection)
	}

	now := time.Now().UTC()
	doc.Metadata = Metadata{CreatedAt: now, UpdatedAt: now}

	b, err := jsoniter.Marshal(doc)
	if err != nil {
		return "", cmn.NewError(cmn.KindInternal, "document.Create", "serialization failure", err)
	}
	if err := s.putDurable(collection, key, b); err != nil {
		return "", err
	}

	ids, err := s.loadStringList(colDocsKey(collection))
	if err != nil {
		return "", err
	}
	found := false
	for _, id := range ids {
		if id == doc.ID {
			found = true
			break
		}
	}
	if !found {
		ids = append(ids, doc.ID)
		if err := s.saveStringList(colDocsKey(collection), ids); err != nil {
			return "", err
		}
	}
	return doc.ID, nil
}

// GetDocument returns the document with id in collection, or ok=false if
// absent.
func (s *Store) GetDocument(collection, id string) (doc *Document, ok bool, err error) {
	b, found, err := s.kv.Get(docKey(collection, id))
	if err != nil {
		return nil, false, cmn.NewError(cmn.KindUnavailable, "document.Get", "storage failure", err)
	}
	if !found {
		return nil, false, nil
	}
	var d Document
	if err := jsoniter.Unmarshal(b, &d); err != nil {
		return nil, false, cmn.NewError(cmn.KindInternal, "document.Get", "deserialization failure", err)
	}
	return &d, true, nil
}

// UpdateDocument overwrites an existing document's content, preserving
// CreatedAt and bumping UpdatedAt. Fails NotFound if the document is absent.
func (s *Store) UpdateDocument(collection string, doc *Document) error {
	existing, ok, err := s.GetDocument(collection, doc.ID)
	if err != nil {
		return err
	}
	if !ok {
		return cmn.NotFoundf("document.Update", "document %q not found in collection %q", doc.ID, collection)
	}
	doc.Metadata = Metadata{CreatedAt: existing.Metadata.CreatedAt, UpdatedAt: time.Now().UTC()}

	b, err := jsoniter.Marshal(doc)
	if err != nil {
		return cmn.NewError(cmn.KindInternal, "document.Update", "serialization failure", err)
	}
	return s.putDurable(collection, docKey(collection, doc.ID), b)
}

// DeleteDocument removes id from collection, reporting whether it existed.
func (s *Store) DeleteDocument(collection, id string) (bool, error) {
	unlock := s.lockFor(collection)
	defer unlock()

	existed, err := s.deleteDurable(collection, docKey(collection, id))
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}

	ids, err := s.loadStringList(colDocsKey(collection))
	if err != nil {
		return true, err
	}
	filtered := ids[:0]
	for _, existingID := range ids {
		if existingID != id {
			filtered = append(filtered, existingID)
		}
	}
	if err := s.saveStringList(colDocsKey(collection), filtered); err != nil {
		return true, err
	}
	return true, nil
}

// ListDocuments returns collection's document ids in insertion order.
func (s *Store) ListDocuments(collection string) ([]string, error) {
	ids, err := s.loadStringList(colDocsKey(collection))
	if err != nil {
		return nil, err
	}
	if ids == nil {
		return []string{}, nil
	}
	return ids, nil
}

// CountDocuments returns the number of documents in collection.
func (s *Store) CountDocuments(collection string) (int, error) {
	ids, err := s.ListDocuments(collection)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Store) loadStringList(key []byte) ([]string, error) {
	b, ok, err := s.kv.Get(key)
	if err != nil {
		return nil, cmn.NewError(cmn.KindUnavailable, "document.loadStringList", "storage failure", err)
	}
	if !ok {
		return nil, nil
	}
	var list []string
	if err := jsoniter.Unmarshal(b, &list); err != nil {
		return nil, cmn.NewError(cmn.KindInternal, "document.loadStringList", "deserialization failure", err)
	}
	return list, nil
}

func (s *Store) saveStringList(key []byte, list []string) error {
	b, err := jsoniter.Marshal(list)
	if err != nil {
		return cmn.NewError(cmn.KindInternal, "document.saveStringList", "serialization failure", err)
	}
	return s.putDurable("", key, b)
}
