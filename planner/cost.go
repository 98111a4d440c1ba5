// Package planner turns a parsed query and registered table metadata into a
// cost-selected execution plan.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package planner

// CostModel weights the CPU/IO/memory components of a physical operation
// into a single comparable cost. Weights
// are tunable; defaults favor I/O as the dominant cost the way a disk-backed
// store's planner should.
type CostModel struct {
	CPUWeight    float64
	IOWeight     float64
	MemoryWeight float64
}

// DefaultCostModel weights all three components equally; the per-row
// constants live in the per-operation methods below (tableScan,
// indexScan, ...).
func DefaultCostModel() CostModel {
	return CostModel{CPUWeight: 1.0, IOWeight: 1.0, MemoryWeight: 1.0}
}

func (m CostModel) weighted(cpu, io, memory float64) CostEstimate {
	return newCostEstimate(cpu*m.CPUWeight, io*m.IOWeight, memory*m.MemoryWeight)
}

func (m CostModel) tableScan(rows uint64, selectivity float64) CostEstimate {
	io := float64(rows) * 0.01 * selectivity
	cpu := float64(rows) * 0.001
	return m.weighted(cpu, io, 0)
}

func (m CostModel) indexScan(rows, indexPages uint64) CostEstimate {
	io := float64(indexPages)*0.005 + float64(rows)*0.002
	cpu := float64(rows) * 0.0005
	return m.weighted(cpu, io, 0)
}

func (m CostModel) filter(rows uint64) CostEstimate {
	return m.weighted(float64(rows)*0.001, 0, 0)
}

func (m CostModel) join(leftRows, rightRows uint64) CostEstimate {
	cpu := float64(leftRows+rightRows) * 0.002
	memory := float64(rightRows) * 32 / (1024 * 1024) // hash table build side
	return m.weighted(cpu, 0, memory)
}

func (m CostModel) aggregate(rows, groups uint64) CostEstimate {
	cpu := float64(rows)*0.002 + float64(groups)*0.001
	memory := float64(groups) * 64 / (1024 * 1024)
	return m.weighted(cpu, 0, memory)
}

func (m CostModel) sort(rows uint64, columns int) CostEstimate {
	cpu := float64(rows) * float64(1+columns) * 0.001
	memory := float64(rows) * 64 / (1024 * 1024)
	return m.weighted(cpu, 0, memory)
}

func (m CostModel) limit() CostEstimate {
	return m.weighted(0.001, 0, 0)
}

func (m CostModel) project(rows uint64) CostEstimate {
	return m.weighted(float64(rows)*0.0001, 0, 0)
}
