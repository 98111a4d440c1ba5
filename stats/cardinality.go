// Package stats provides data-distribution summaries (cardinality
// sketches and histograms) feeding the query planner.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"math"
	"math/bits"

	"github.com/OneOfOne/xxhash"
	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/dotlanth/dotvm/cmn"
)

// Cardinality is a value-type cardinality estimator: one of
// Exact, HyperLogLog, or Adaptive. Like histograms, sketches are values:
// callers clone for read-only consumption and Merge always returns a new
// value rather than mutating a shared reference.
type Cardinality struct {
	kind string // "Exact" | "HyperLogLog" | "Adaptive"

	// Exact
	exact  map[uint64]struct{}
	filter *cuckoo.Filter // fast membership pre-check before the map lookup

	// HyperLogLog
	precision int
	registers []uint8

	// Adaptive
	threshold int
	migrated  bool
}

func hash64(value []byte) uint64 {
	return xxhash.Checksum64(value)
}

// NewExact creates an exact cardinality estimator backed by a hash set.
func NewExact() *Cardinality {
	return &Cardinality{
		kind:   "Exact",
		exact:  make(map[uint64]struct{}),
		filter: cuckoo.NewFilter(1024),
	}
}

// NewHyperLogLog creates a HyperLogLog estimator with precision p in
// [4..16] (m = 2^p registers). Precisions outside that range are rejected.
func NewHyperLogLog(p int) (*Cardinality, error) {
	if p < 4 || p > 16 {
		return nil, cmn.Validationf("stats.NewHyperLogLog", "precision %d out of range [4,16]", p)
	}
	return &Cardinality{
		kind:      "HyperLogLog",
		precision: p,
		registers: make([]uint8, 1<<uint(p)),
	}, nil
}

// NewAdaptive creates an estimator that stays Exact until its distinct
// count reaches threshold, then migrates all existing hashes into a
// HyperLogLog(p) and discards the exact set permanently.
func NewAdaptive(threshold, p int) (*Cardinality, error) {
	if p < 4 || p > 16 {
		return nil, cmn.Validationf("stats.NewAdaptive", "precision %d out of range [4,16]", p)
	}
	return &Cardinality{
		kind:      "Adaptive",
		threshold: threshold,
		precision: p,
		exact:     make(map[uint64]struct{}),
		filter:    cuckoo.NewFilter(1024),
	}, nil
}

// Kind reports which variant the estimator currently is. For Adaptive, this
// reflects current internal state ("Exact" or "HyperLogLog"), so a
// caller can observe that migration happened.
func (c *Cardinality) Kind() string {
	if c.kind == "Adaptive" {
		if c.migrated {
			return "HyperLogLog"
		}
		return "Exact"
	}
	return c.kind
}

// Add records value in the estimator.
func (c *Cardinality) Add(value []byte) {
	switch c.kind {
	case "Exact":
		h := hash64(value)
		c.exact[h] = struct{}{}
		c.filter.InsertUnique(value)
	case "HyperLogLog":
		c.addHLL(value)
	case "Adaptive":
		if c.migrated {
			c.addHLL(value)
			return
		}
		h := hash64(value)
		c.exact[h] = struct{}{}
		c.filter.InsertUnique(value)
		if len(c.exact) >= c.threshold {
			c.migrateToHLL()
		}
	}
}

func (c *Cardinality) addHLL(value []byte) {
	h := hash64(value)
	p := uint(c.precision)
	idx := h >> (64 - p)
	w := h << p
	rank := uint8(bits.LeadingZeros64(w)) + 1
	if rank > c.registers[idx] {
		c.registers[idx] = rank
	}
}

// migrateToHLL moves every hash currently in the Exact set into a fresh
// HyperLogLog(precision) and drops the Exact set: once migrated, it is
// never restored.
func (c *Cardinality) migrateToHLL() {
	c.registers = make([]uint8, 1<<uint(c.precision))
	for h := range c.exact {
		p := uint(c.precision)
		idx := h >> (64 - p)
		w := h << p
		rank := uint8(bits.LeadingZeros64(w)) + 1
		if rank > c.registers[idx] {
			c.registers[idx] = rank
		}
	}
	c.exact = nil
	c.filter = nil
	c.migrated = true
}

// Contains reports, for an Exact (or not-yet-migrated Adaptive) estimator,
// whether value was (probably) added, using the cuckoofilter fast path
// before falling back to the authoritative hash set.
func (c *Cardinality) Contains(value []byte) bool {
	if c.filter != nil && !c.filter.Lookup(value) {
		return false
	}
	if c.exact == nil {
		return false
	}
	_, ok := c.exact[hash64(value)]
	return ok
}

// Estimate returns the estimated distinct-value count.
func (c *Cardinality) Estimate() uint64 {
	switch c.kind {
	case "Exact":
		return uint64(len(c.exact))
	case "HyperLogLog":
		return c.estimateHLL()
	case "Adaptive":
		if !c.migrated {
			return uint64(len(c.exact))
		}
		return c.estimateHLL()
	}
	return 0
}

// Accuracy reports the estimator's theoretical relative-error bound:
// exact while Exact, 1.04/sqrt(2^p) while HyperLogLog.
func (c *Cardinality) Accuracy() float64 {
	switch c.Kind() {
	case "Exact":
		return 1.0
	default:
		m := float64(uint64(1) << uint(c.precision))
		return 1.04 / math.Sqrt(m)
	}
}

func (c *Cardinality) estimateHLL() uint64 {
	m := float64(len(c.registers))
	sum := 0.0
	zeros := 0
	for _, r := range c.registers {
		sum += 1.0 / math.Pow(2, float64(r))
		if r == 0 {
			zeros++
		}
	}
	alpha := alphaFor(m)
	raw := alpha * m * m / sum

	switch {
	case raw <= 2.5*m && zeros > 0:
		return uint64(m * math.Log(m/float64(zeros)))
	case raw > (math.Pow(2, 32) / 30):
		return uint64(-math.Pow(2, 32) * math.Log(1-raw/math.Pow(2, 32)))
	default:
		return uint64(raw)
	}
}

func alphaFor(m float64) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/m)
	}
}

// Merge combines a and b into a new estimator, leaving both inputs
// untouched (sketches are values, per the design notes). Same-precision
// HyperLogLogs take register-wise max; Exact sets union; an Adaptive merge
// upgrades to HyperLogLog if either side has migrated.
func Merge(a, b *Cardinality) (*Cardinality, error) {
	if a.kind == "HyperLogLog" && b.kind == "HyperLogLog" {
		if a.precision != b.precision {
			return nil, cmn.Validationf("stats.Merge", "precision mismatch: %d vs %d", a.precision, b.precision)
		}
		out := &Cardinality{kind: "HyperLogLog", precision: a.precision, registers: make([]uint8, len(a.registers))}
		for i := range out.registers {
			out.registers[i] = max8(a.registers[i], b.registers[i])
		}
		return out, nil
	}
	if a.kind == "Exact" && b.kind == "Exact" {
		out := NewExact()
		for h := range a.exact {
			out.exact[h] = struct{}{}
		}
		for h := range b.exact {
			out.exact[h] = struct{}{}
		}
		return out, nil
	}
	if a.kind == "Adaptive" || b.kind == "Adaptive" {
		if a.Kind() == "HyperLogLog" || b.Kind() == "HyperLogLog" {
			ah, err := asHLL(a)
			if err != nil {
				return nil, err
			}
			bh, err := asHLL(b)
			if err != nil {
				return nil, err
			}
			merged, err := Merge(ah, bh)
			if err != nil {
				return nil, err
			}
			out := &Cardinality{kind: "Adaptive", precision: merged.precision, registers: merged.registers, migrated: true, threshold: maxInt(a.threshold, b.threshold)}
			return out, nil
		}
		merged, err := Merge(&Cardinality{kind: "Exact", exact: a.exact}, &Cardinality{kind: "Exact", exact: b.exact})
		if err != nil {
			return nil, err
		}
		result := &Cardinality{
			kind:      "Adaptive",
			exact:     merged.exact,
			filter:    cuckoo.NewFilter(1024),
			threshold: maxInt(a.threshold, b.threshold),
			precision: maxInt(a.precision, b.precision),
		}
		for h := range result.exact {
			result.filter.InsertUnique(uint64ToBytes(h))
		}
		return result, nil
	}
	return nil, cmn.Validationf("stats.Merge", "incompatible cardinality kinds %q and %q", a.kind, b.kind)
}

func asHLL(c *Cardinality) (*Cardinality, error) {
	if c.Kind() == "HyperLogLog" {
		return &Cardinality{kind: "HyperLogLog", precision: c.precision, registers: c.registers}, nil
	}
	out, err := NewHyperLogLog(c.precision)
	if err != nil {
		return nil, err
	}
	for h := range c.exact {
		p := uint(out.precision)
		idx := h >> (64 - p)
		w := h << p
		rank := uint8(bits.LeadingZeros64(w)) + 1
		if rank > out.registers[idx] {
			out.registers[idx] = rank
		}
	}
	return out, nil
}

func max8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func uint64ToBytes(h uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (8 * i))
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
