/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import "github.com/golang/glog"

// Internal errors surface outward as an opaque gateway code (see
// Kind.GatewayCode), so the full context is recorded here, at construction,
// the only point it still exists.
func logInternal(e *Error) {
	glog.ErrorDepth(2, e.Error())
}
