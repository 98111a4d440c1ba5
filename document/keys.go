// Package document implements the document store: collections of
// content-addressed JSON documents atop the key-value interface, with every
// mutation recorded in the write-ahead log before it becomes visible.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package document

import "fmt"

// KV key namespaces, UTF-8 byte sequences, ':' separator.
// Key uniqueness is the document layer's sole consistency anchor.

func docKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("doc:%s:%s", collection, id))
}

func docPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("doc:%s:", collection))
}

func colMetaKey(collection string) []byte {
	return []byte(fmt.Sprintf("col:%s", collection))
}

func colDocsKey(collection string) []byte {
	return []byte(fmt.Sprintf("col_docs:%s", collection))
}

var collectionsKey = []byte("collections")
