// Package debug provides invariant assertions used on the hot path
// (opcode dispatch, stack manipulation) where a failure indicates a bug
// rather than bad input.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import "fmt"

// Assert panics if cond is false. Reserved for invariants the caller has
// already validated upstream; never used to reject external input.
func Assert(cond bool, args ...interface{}) {
	if !cond {
		panic(fmt.Sprint(args...))
	}
}

// Assertf is Assert with a format string.
func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
