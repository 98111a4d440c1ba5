// Package main is the dotvmd executable.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"testing"
	"time"

	"github.com/dotlanth/dotvm/transpiler"
)

func TestDotRegistryCompiledRoundTrip(t *testing.T) {
	r := newDotRegistry()
	cm := &compiledModule{ID: "m1", Module: &transpiler.Module{}, Compiled: time.Now()}
	r.putCompiled(cm)

	got, ok := r.getCompiled("m1")
	if !ok || got != cm {
		t.Fatalf("getCompiled(m1) = %v, %v; want %v, true", got, ok, cm)
	}
	if _, ok := r.getCompiled("missing"); ok {
		t.Fatalf("getCompiled(missing) should report not found")
	}
}

func TestDotRegistryDotLifecycle(t *testing.T) {
	r := newDotRegistry()
	d := &Dot{ID: "d1", Name: "demo", ModuleID: "m1", DeployedAt: time.Now()}
	r.putDot(d)

	got, ok := r.getDot("d1")
	if !ok || got != d {
		t.Fatalf("getDot(d1) = %v, %v; want %v, true", got, ok, d)
	}

	if !r.deleteDot("d1") {
		t.Fatalf("deleteDot(d1) should report true the first time")
	}
	if r.deleteDot("d1") {
		t.Fatalf("deleteDot(d1) should report false once already removed")
	}
	if _, ok := r.getDot("d1"); ok {
		t.Fatalf("getDot(d1) should report not found after deletion")
	}
}

func TestDotRegistryListDotsOrdersByDeployTime(t *testing.T) {
	r := newDotRegistry()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	third := &Dot{ID: "c", DeployedAt: base.Add(2 * time.Minute)}
	first := &Dot{ID: "a", DeployedAt: base}
	second := &Dot{ID: "b", DeployedAt: base.Add(time.Minute)}

	r.putDot(third)
	r.putDot(first)
	r.putDot(second)

	got := r.listDots()
	if len(got) != 3 {
		t.Fatalf("listDots returned %d entries, want 3", len(got))
	}
	wantOrder := []string{"a", "b", "c"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("listDots()[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}
