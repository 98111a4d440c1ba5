// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"encoding/json"
	"testing"

	"github.com/dotlanth/dotvm/vm"
)

// jsonValue builds a vm.Value carrying raw JSON, the shape db_read/db_write
// pass across the bridge's DatabaseExecutor ABI.
func jsonValue(t *testing.T, raw string) vm.Value {
	t.Helper()
	return vm.JSONValue(json.RawMessage(raw))
}
