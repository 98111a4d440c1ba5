// Package stats provides data-distribution summaries (cardinality
// sketches and histograms) feeding the query planner.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"fmt"
	"testing"

	"github.com/dotlanth/dotvm/stats"
)

// TestHLLAccuracy checks the estimate over 10k distinct values at p=14.
func TestHLLAccuracy(t *testing.T) {
	hll, err := stats.NewHyperLogLog(14)
	if err != nil {
		t.Fatalf("NewHyperLogLog: %v", err)
	}
	for i := 0; i < 10000; i++ {
		hll.Add([]byte(fmt.Sprintf("value_%d", i)))
	}
	est := hll.Estimate()
	lo, hi := uint64(9500), uint64(10500)
	if est < lo || est > hi {
		t.Fatalf("estimate = %d, want within +-5%% of 10000", est)
	}
}

// TestAdaptiveMigration crosses the exact-set threshold and checks the switch.
func TestAdaptiveMigration(t *testing.T) {
	c, err := stats.NewAdaptive(100, 14)
	if err != nil {
		t.Fatalf("NewAdaptive: %v", err)
	}
	for i := 0; i < 50; i++ {
		c.Add([]byte(fmt.Sprintf("v%d", i)))
	}
	if got := c.Estimate(); got != 50 {
		t.Fatalf("estimate after 50 inserts = %d, want 50", got)
	}
	if c.Kind() != "Exact" {
		t.Fatalf("kind after 50 inserts = %s, want Exact", c.Kind())
	}

	for i := 50; i < 200; i++ {
		c.Add([]byte(fmt.Sprintf("v%d", i)))
	}
	if c.Kind() != "HyperLogLog" {
		t.Fatalf("kind after 200 inserts = %s, want HyperLogLog", c.Kind())
	}
	got := c.Estimate()
	if got < 180 || got > 220 {
		t.Fatalf("estimate after 200 inserts = %d, want in [180,220]", got)
	}
}

func TestExactCardinalityAndContains(t *testing.T) {
	c := stats.NewExact()
	c.Add([]byte("a"))
	c.Add([]byte("b"))
	c.Add([]byte("a"))
	if got := c.Estimate(); got != 2 {
		t.Fatalf("estimate = %d, want 2", got)
	}
	if !c.Contains([]byte("a")) {
		t.Fatalf("expected Contains(a) == true")
	}
	if c.Contains([]byte("z")) {
		t.Fatalf("expected Contains(z) == false")
	}
}

func TestMergeExactUnion(t *testing.T) {
	a := stats.NewExact()
	a.Add([]byte("1"))
	a.Add([]byte("2"))
	b := stats.NewExact()
	b.Add([]byte("2"))
	b.Add([]byte("3"))

	merged, err := stats.Merge(a, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := merged.Estimate(); got != 3 {
		t.Fatalf("merged estimate = %d, want 3", got)
	}
}

func TestMergeHLLSamePrecision(t *testing.T) {
	a, _ := stats.NewHyperLogLog(10)
	b, _ := stats.NewHyperLogLog(10)
	for i := 0; i < 500; i++ {
		a.Add([]byte(fmt.Sprintf("a%d", i)))
	}
	for i := 0; i < 500; i++ {
		b.Add([]byte(fmt.Sprintf("b%d", i)))
	}
	merged, err := stats.Merge(a, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	est := merged.Estimate()
	if est < 800 || est > 1200 {
		t.Fatalf("merged estimate = %d, want roughly 1000", est)
	}
}

func TestMergeHLLPrecisionMismatch(t *testing.T) {
	a, _ := stats.NewHyperLogLog(10)
	b, _ := stats.NewHyperLogLog(12)
	if _, err := stats.Merge(a, b); err == nil {
		t.Fatalf("expected precision mismatch error")
	}
}

func TestAdaptiveAccuracyReflectsState(t *testing.T) {
	c, _ := stats.NewAdaptive(1000, 14)
	if c.Accuracy() != 1.0 {
		t.Fatalf("accuracy while Exact = %v, want 1.0", c.Accuracy())
	}
}
