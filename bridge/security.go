// Package bridge implements the synchronous-to-async host-function
// bridge: it lets guest bytecode invoke database, crypto, parallel, and
// state operations through blocking calls backed by the async scheduler.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package bridge

import (
	"github.com/golang/glog"

	"github.com/dotlanth/dotvm/cmn"
)

// SecurityContext is the allow/deny list pair consulted before a
// host-function call executes. Role management lives with the external
// gateway; the bridge only ever sees the two resolved sets.
type SecurityContext struct {
	allowed map[string]bool
	blocked map[string]bool
}

// NewSecurityContext builds a context from explicit allow/block lists.
// An empty allowed list means every non-blocked operation is permitted.
func NewSecurityContext(allowedOperations, blockedOperations []string) *SecurityContext {
	sc := &SecurityContext{
		allowed: make(map[string]bool, len(allowedOperations)),
		blocked: make(map[string]bool, len(blockedOperations)),
	}
	for _, op := range allowedOperations {
		sc.allowed[op] = true
	}
	for _, op := range blockedOperations {
		sc.blocked[op] = true
	}
	return sc
}

// Check returns a SecurityViolation (cmn.KindSecurity) if operation is
// blocked, or if an allow list is configured and operation isn't on it.
func (sc *SecurityContext) Check(operation string) error {
	if sc == nil {
		return nil
	}
	if sc.blocked[operation] {
		glog.Warningf("bridge: blocked operation %q denied", operation)
		return cmn.NewError(cmn.KindSecurity, "bridge.Check", "operation \""+operation+"\" is blocked", nil)
	}
	if len(sc.allowed) > 0 && !sc.allowed[operation] {
		glog.Warningf("bridge: operation %q not in allow list, denied", operation)
		return cmn.NewError(cmn.KindSecurity, "bridge.Check", "operation \""+operation+"\" is not in the allow list", nil)
	}
	return nil
}
