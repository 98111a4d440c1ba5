// Package document implements the document store: collections of
// content-addressed JSON documents atop the key-value interface, with every
// mutation recorded in the write-ahead log before it becomes visible.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package document

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Metadata carries the lifecycle timestamps attached to every
// document.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is a content-addressed JSON document: identity is ID, immutable
// after creation except via UpdateDocument.
type Document struct {
	ID       string              `json:"id"`
	Content  jsoniter.RawMessage `json:"content"`
	Metadata Metadata            `json:"metadata"`
}

// Collection is the lazily-created owner of a set of documents.
type Collection struct {
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	DocumentIDs  []string  `json:"document_ids"`
	DocCount     int       `json:"document_count"`
}
