// Package stats provides data-distribution summaries (cardinality
// sketches and histograms) feeding the query planner.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"testing"

	"github.com/dotlanth/dotvm/stats"
)

// TestHistogramSelectivity builds data [1..10] into 5 equal-width
// buckets.
func TestHistogramSelectivity(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	h, err := stats.BuildEqualWidth(data, 0, 5)
	if err != nil {
		t.Fatalf("BuildEqualWidth: %v", err)
	}
	if h.TotalCount != 10 {
		t.Fatalf("TotalCount = %d, want 10", h.TotalCount)
	}

	sel := h.EstimateSelectivity(3.0)
	if sel <= 0 || sel > 0.4 {
		t.Fatalf("EstimateSelectivity(3.0) = %v, want (0, 0.4]", sel)
	}

	rangeSel := h.EstimateRangeSelectivity(3.0, 7.0)
	if rangeSel <= 0 || rangeSel > 1 {
		t.Fatalf("EstimateRangeSelectivity(3,7) = %v, want (0,1]", rangeSel)
	}
}

func TestHistogramBucketCountsSumToTotal(t *testing.T) {
	data := []float64{1, 2, 2, 3, 5, 8, 13, 21, 34, 55}
	h, err := stats.BuildEqualFrequency(data, 0, 4)
	if err != nil {
		t.Fatalf("BuildEqualFrequency: %v", err)
	}
	sum := 0
	for _, b := range h.Buckets {
		sum += b.Count
	}
	if sum != len(data) {
		t.Fatalf("bucket counts sum to %d, want %d", sum, len(data))
	}
}

func TestHistogramTracksMostCommonValue(t *testing.T) {
	data := []float64{1, 2, 2, 2, 3, 4}
	h, err := stats.BuildEqualWidth(data, 0, 1)
	if err != nil {
		t.Fatalf("BuildEqualWidth: %v", err)
	}
	b := h.Buckets[0]
	if b.MostCommonValue != 2 || b.MCVFrequency != 3 {
		t.Fatalf("MCV = %v (freq %d), want 2 (freq 3)", b.MostCommonValue, b.MCVFrequency)
	}
	if b.DistinctValues != 4 {
		t.Fatalf("DistinctValues = %d, want 4", b.DistinctValues)
	}
}

func TestHistogramAllNullColumn(t *testing.T) {
	h, err := stats.BuildEqualWidth(nil, 10, 5)
	if err != nil {
		t.Fatalf("BuildEqualWidth: %v", err)
	}
	if h.NullFraction() != 1.0 {
		t.Fatalf("NullFraction = %v, want 1.0", h.NullFraction())
	}
	if h.TotalCount != 0 {
		t.Fatalf("TotalCount = %d, want 0", h.TotalCount)
	}
}

func TestHistogramCustomBoundariesRequiresTwo(t *testing.T) {
	if _, err := stats.BuildCustomBoundaries([]float64{1, 2, 3}, 0, []float64{5}); err == nil {
		t.Fatalf("expected error for fewer than 2 boundaries")
	}
}

func TestMergeHistogramsSumsCounts(t *testing.T) {
	a, _ := stats.BuildEqualWidth([]float64{1, 2, 3}, 1, 2)
	b, _ := stats.BuildEqualWidth([]float64{4, 5, 6}, 2, 2)
	merged, err := stats.MergeHistograms(a, b)
	if err != nil {
		t.Fatalf("MergeHistograms: %v", err)
	}
	if merged.TotalCount != a.TotalCount+b.TotalCount {
		t.Fatalf("TotalCount = %d, want %d", merged.TotalCount, a.TotalCount+b.TotalCount)
	}
	if merged.NullCount != 3 {
		t.Fatalf("NullCount = %d, want 3", merged.NullCount)
	}
	if merged.Min != 1 || merged.Max != 6 {
		t.Fatalf("Min/Max = %v/%v, want 1/6", merged.Min, merged.Max)
	}
}

func TestMergeHistogramsStrategyMismatch(t *testing.T) {
	a, _ := stats.BuildEqualWidth([]float64{1, 2, 3}, 0, 2)
	b, _ := stats.BuildEqualFrequency([]float64{1, 2, 3}, 0, 2)
	if _, err := stats.MergeHistograms(a, b); err == nil {
		t.Fatalf("expected strategy mismatch error")
	}
}
