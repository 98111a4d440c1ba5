// Package tassert provides canonical test assertion helpers.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package tassert

import (
	"fmt"
	"runtime/debug"
	"testing"
)

func CheckFatal(t *testing.T, err error) {
	if err != nil {
		printStack()
		t.Fatalf("%v", err)
	}
}

func CheckError(t *testing.T, err error) {
	if err != nil {
		printStack()
		t.Errorf("%v", err)
	}
}

func Fatalf(t *testing.T, cond bool, msg string, args ...interface{}) {
	if !cond {
		printStack()
		t.Fatalf(msg, args...)
	}
}

func Errorf(t *testing.T, cond bool, msg string, args ...interface{}) {
	if !cond {
		printStack()
		t.Errorf(msg, args...)
	}
}

func printStack() {
	fmt.Println(string(debug.Stack()))
}
