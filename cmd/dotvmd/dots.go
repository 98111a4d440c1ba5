// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"sync"
	"time"

	"github.com/dotlanth/dotvm/cmn"
	"github.com/dotlanth/dotvm/transpiler"
)

// compiledModule is one compile_module result, kept around so a later
// deploy_dot can reference it by id instead of resubmitting WASM bytes.
type compiledModule struct {
	ID       string
	Module   *transpiler.Module
	Stages   []transpiler.StageReport
	Compiled time.Time
}

// Dot is a deployed, executable instance of a compiled module: deploy_dot's
// result and the unit list_dots/get_dot_state/delete_dot/execute_dot act on.
type Dot struct {
	ID         string
	Name       string
	ModuleID   string
	Module     *transpiler.Module
	Options    DeployOptions
	DeployedAt time.Time
}

// DeployOptions carries deploy_dot's abstract "options" parameter.
type DeployOptions struct {
	Architecture cmn.Architecture
}

// dotRegistry is the in-process store backing compile_module/deploy_dot/
// list_dots/delete_dot: a mutex-guarded map, the same shape document.Store
// uses for its collection index, scaled down since a dot's identity is
// simply its id.
type dotRegistry struct {
	mu       sync.RWMutex
	compiled map[string]*compiledModule
	dots     map[string]*Dot
}

func newDotRegistry() *dotRegistry {
	return &dotRegistry{
		compiled: make(map[string]*compiledModule),
		dots:     make(map[string]*Dot),
	}
}

func (r *dotRegistry) putCompiled(cm *compiledModule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compiled[cm.ID] = cm
}

func (r *dotRegistry) getCompiled(id string) (*compiledModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cm, ok := r.compiled[id]
	return cm, ok
}

func (r *dotRegistry) putDot(d *Dot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dots[d.ID] = d
}

func (r *dotRegistry) getDot(id string) (*Dot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dots[id]
	return d, ok
}

func (r *dotRegistry) deleteDot(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dots[id]; !ok {
		return false
	}
	delete(r.dots, id)
	return true
}

// listDots returns every deployed dot ordered by deployment time, oldest
// first, mirroring document.Store.ListDocuments's insertion-order contract.
func (r *dotRegistry) listDots() []*Dot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Dot, 0, len(r.dots))
	for _, d := range r.dots {
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].DeployedAt.After(out[j].DeployedAt); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
