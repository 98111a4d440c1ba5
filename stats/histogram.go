// Package stats provides data-distribution summaries (cardinality
// sketches and histograms) feeding the query planner.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"sort"

	"github.com/dotlanth/dotvm/cmn"
)

// Bucket is one contiguous, non-overlapping range of a Histogram.
type Bucket struct {
	Min             float64
	Max             float64
	Count           int
	DistinctValues  int
	MostCommonValue float64
	MCVFrequency    int
}

func (b Bucket) width() float64 {
	if b.Max == b.Min {
		return 1 // degenerate single-value bucket; avoid div-by-zero in overlap math
	}
	return b.Max - b.Min
}

// Histogram summarizes a data distribution as a strategy-tagged list of
// buckets plus totals. Bucket ranges are contiguous, non-overlapping, and
// cover [Min, Max].
type Histogram struct {
	Strategy   string // "EqualWidth" | "EqualFrequency" | "CustomBoundaries"
	Buckets    []Bucket
	TotalCount int
	NullCount  int
	Min        float64
	Max        float64
}

// NullFraction is NullCount/(TotalCount+NullCount).
func (h *Histogram) NullFraction() float64 {
	total := h.TotalCount + h.NullCount
	if total == 0 {
		return 0
	}
	return float64(h.NullCount) / float64(total)
}

// BuildEqualWidth partitions [min,max] of data into numBuckets equal-width
// buckets.
func BuildEqualWidth(data []float64, nulls int, numBuckets int) (*Histogram, error) {
	if numBuckets <= 0 {
		return nil, cmn.Validationf("stats.BuildEqualWidth", "numBuckets must be > 0")
	}
	h := &Histogram{Strategy: "EqualWidth", NullCount: nulls}
	if len(data) == 0 {
		return h, nil
	}
	sorted := sortedCopy(data)
	h.Min, h.Max = sorted[0], sorted[len(sorted)-1]
	h.TotalCount = len(sorted)

	width := (h.Max - h.Min) / float64(numBuckets)
	if width == 0 {
		h.Buckets = []Bucket{countBucket(sorted, h.Min, h.Max)}
		return h, nil
	}
	buckets := make([]Bucket, numBuckets)
	for i := range buckets {
		buckets[i].Min = h.Min + float64(i)*width
		buckets[i].Max = h.Min + float64(i+1)*width
	}
	buckets[numBuckets-1].Max = h.Max // last bucket absorbs rounding, stays contiguous
	fillers := make([]bucketFiller, numBuckets)
	for _, v := range sorted {
		idx := bucketIndexFor(v, h.Min, width, numBuckets)
		fillers[idx].add(&buckets[idx], v)
	}
	h.Buckets = buckets
	return h, nil
}

// BuildEqualFrequency puts ceil(n/numBuckets) values per bucket.
func BuildEqualFrequency(data []float64, nulls int, numBuckets int) (*Histogram, error) {
	if numBuckets <= 0 {
		return nil, cmn.Validationf("stats.BuildEqualFrequency", "numBuckets must be > 0")
	}
	h := &Histogram{Strategy: "EqualFrequency", NullCount: nulls}
	if len(data) == 0 {
		return h, nil
	}
	sorted := sortedCopy(data)
	h.Min, h.Max = sorted[0], sorted[len(sorted)-1]
	h.TotalCount = len(sorted)

	perBucket := (len(sorted) + numBuckets - 1) / numBuckets
	var buckets []Bucket
	for i := 0; i < len(sorted); i += perBucket {
		end := i + perBucket
		if end > len(sorted) {
			end = len(sorted)
		}
		chunk := sorted[i:end]
		b := Bucket{Min: chunk[0], Max: chunk[len(chunk)-1]}
		var filler bucketFiller
		for _, v := range chunk {
			filler.add(&b, v)
		}
		buckets = append(buckets, b)
	}
	// keep buckets contiguous even where adjacent chunks share a boundary value
	for i := 1; i < len(buckets); i++ {
		if buckets[i].Min < buckets[i-1].Max {
			buckets[i].Min = buckets[i-1].Max
		}
	}
	h.Buckets = buckets
	return h, nil
}

// BuildCustomBoundaries builds buckets from explicit, sorted boundaries
// (len >= 2).
func BuildCustomBoundaries(data []float64, nulls int, boundaries []float64) (*Histogram, error) {
	if len(boundaries) < 2 {
		return nil, cmn.Validationf("stats.BuildCustomBoundaries", "need at least 2 boundaries, got %d", len(boundaries))
	}
	sortedBounds := append([]float64(nil), boundaries...)
	sort.Float64s(sortedBounds)

	h := &Histogram{Strategy: "CustomBoundaries", NullCount: nulls}
	buckets := make([]Bucket, len(sortedBounds)-1)
	for i := range buckets {
		buckets[i].Min = sortedBounds[i]
		buckets[i].Max = sortedBounds[i+1]
	}
	if len(data) > 0 {
		sorted := sortedCopy(data)
		h.Min, h.Max = sorted[0], sorted[len(sorted)-1]
		h.TotalCount = len(sorted)
		fillers := make([]bucketFiller, len(buckets))
		for _, v := range sorted {
			for i := range buckets {
				if v >= buckets[i].Min && (v < buckets[i].Max || i == len(buckets)-1) {
					fillers[i].add(&buckets[i], v)
					break
				}
			}
		}
	}
	h.Buckets = buckets
	return h, nil
}

func bucketIndexFor(v, min, width float64, n int) int {
	idx := int((v - min) / width)
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func countBucket(sorted []float64, min, max float64) Bucket {
	b := Bucket{Min: min, Max: max}
	var filler bucketFiller
	for _, v := range sorted {
		filler.add(&b, v)
	}
	return b
}

// bucketFiller accumulates one bucket's per-value statistics. Values must
// arrive in sorted order, so runs of equal values are adjacent: distinct
// counting and most-common-value tracking fall out of run-length counting.
type bucketFiller struct {
	run  int
	last float64
}

func (f *bucketFiller) add(b *Bucket, v float64) {
	b.Count++
	if b.Count == 1 || v != f.last {
		b.DistinctValues++
		f.run = 1
	} else {
		f.run++
	}
	f.last = v
	if f.run > b.MCVFrequency {
		b.MCVFrequency = f.run
		b.MostCommonValue = v
	}
}

func sortedCopy(data []float64) []float64 {
	out := append([]float64(nil), data...)
	sort.Float64s(out)
	return out
}

// EstimateSelectivity returns the fraction of rows matching the point value
// v: bucket.count / total.
func (h *Histogram) EstimateSelectivity(v float64) float64 {
	total := h.TotalCount
	if total == 0 {
		return 0
	}
	for _, b := range h.Buckets {
		if v >= b.Min && v <= b.Max {
			return float64(b.Count) / float64(total)
		}
	}
	return 0
}

// EstimateRangeSelectivity sums bucket.count * overlap_fraction across every
// bucket overlapping [a,b].
func (h *Histogram) EstimateRangeSelectivity(a, b float64) float64 {
	total := h.TotalCount
	if total == 0 {
		return 0
	}
	var sum float64
	for _, bucket := range h.Buckets {
		lo := max64(a, bucket.Min)
		hi := min64(b, bucket.Max)
		if hi <= lo {
			continue
		}
		overlap := (hi - lo) / bucket.width()
		sum += float64(bucket.Count) * overlap
	}
	sel := sum / float64(total)
	if sel > 1 {
		sel = 1
	}
	if sel < 0 {
		sel = 0
	}
	return sel
}

// MergeHistograms combines a and b: preserves Strategy (must match), sums
// counts/nulls, takes extrema of min/max. Buckets are combined pairwise
// by index (min of mins, max of maxes, summed counts), which requires the
// same Strategy and bucket count.
func MergeHistograms(a, b *Histogram) (*Histogram, error) {
	if a.Strategy != b.Strategy {
		return nil, cmn.Validationf("stats.MergeHistograms", "strategy mismatch: %s vs %s", a.Strategy, b.Strategy)
	}
	if len(a.Buckets) != len(b.Buckets) {
		return nil, cmn.Validationf("stats.MergeHistograms", "bucket count mismatch: %d vs %d", len(a.Buckets), len(b.Buckets))
	}
	out := &Histogram{
		Strategy:   a.Strategy,
		TotalCount: a.TotalCount + b.TotalCount,
		NullCount:  a.NullCount + b.NullCount,
		Min:        min64(a.Min, b.Min),
		Max:        max64(a.Max, b.Max),
		Buckets:    make([]Bucket, len(a.Buckets)),
	}
	for i := range out.Buckets {
		out.Buckets[i] = Bucket{
			Min:   min64(a.Buckets[i].Min, b.Buckets[i].Min),
			Max:   max64(a.Buckets[i].Max, b.Buckets[i].Max),
			Count: a.Buckets[i].Count + b.Buckets[i].Count,
		}
	}
	return out, nil
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
