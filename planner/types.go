// Package planner turns a parsed query and registered table metadata into a
// cost-selected execution plan.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package planner

// QueryPredicate is a single WHERE-clause predicate with its estimated
// selectivity, if known.
type QueryPredicate struct {
	Column      string
	Operator    string
	Value       interface{}
	Selectivity *float64
}

func (p QueryPredicate) selectivity() float64 {
	if p.Selectivity != nil {
		return *p.Selectivity
	}
	return 0.1
}

// JoinType enumerates the supported join semantics.
type JoinType string

const (
	JoinInner      JoinType = "Inner"
	JoinLeftOuter  JoinType = "LeftOuter"
	JoinRightOuter JoinType = "RightOuter"
	JoinFullOuter  JoinType = "FullOuter"
	JoinCross      JoinType = "Cross"
	JoinSemi       JoinType = "Semi"
	JoinAnti       JoinType = "Anti"
)

// JoinAlgorithm enumerates the physical join implementation. The planner
// always chooses HashJoin; the others exist so downstream execution and
// tests can express alternatives explicitly.
type JoinAlgorithm string

const (
	AlgoNestedLoop      JoinAlgorithm = "NestedLoop"
	AlgoHashJoin        JoinAlgorithm = "HashJoin"
	AlgoSortMerge       JoinAlgorithm = "SortMerge"
	AlgoIndexNestedLoop JoinAlgorithm = "IndexNestedLoop"
)

// JoinCondition names the columns and operator joining two relations.
type JoinCondition struct {
	LeftColumns  []string
	RightColumns []string
	Operator     string
}

// JoinSpec is one join clause in a ParsedQuery.
type JoinSpec struct {
	Table     string
	JoinType  JoinType
	Condition JoinCondition
}

// SortColumn is one ORDER BY term.
type SortColumn struct {
	Column    string
	Ascending bool
}

// AggregateFunction is one SELECT aggregate, e.g. COUNT(col) AS alias.
type AggregateFunction struct {
	Function string
	Column   string
	Alias    string
}

// ParsedQuery is the planner's input: a query already parsed into its
// logical clauses.
type ParsedQuery struct {
	SelectColumns   []string
	FromTable       string
	WherePredicates []QueryPredicate
	Joins           []JoinSpec
	GroupBy         []string
	Aggregates      []AggregateFunction
	OrderBy         []SortColumn
	Limit           *uint64
	Offset          *uint64
}

// ColumnInfo describes one registered column's shape for cost estimation.
type ColumnInfo struct {
	DataType    string
	Nullable    bool
	Cardinality uint64
	Selectivity float64
}

// TableMetadata is what the planner needs to know about a registered table.
type TableMetadata struct {
	RowCount         uint64
	Columns          map[string]ColumnInfo
	AvailableIndexes []string
}

// CostEstimate breaks a node's estimated cost into the weighted components
// the cost model combines.
type CostEstimate struct {
	CPUCost    float64
	IOCost     float64
	MemoryCost float64
	TotalCost  float64
}

func newCostEstimate(cpu, io, memory float64) CostEstimate {
	return CostEstimate{CPUCost: cpu, IOCost: io, MemoryCost: memory, TotalCost: cpu + io + memory}
}

// PlanOperation tags the physical operation a PlanNode performs along
// with its operation-specific parameters. Only the fields relevant to
// Kind are populated, which keeps JSON (de)serialization straightforward
// via jsoniter.
type PlanOperation struct {
	Kind string // TableScan|IndexScan|Filter|Project|Sort|Join|Aggregate|Limit

	Table      string
	Index      string
	Predicates []QueryPredicate
	Projection []string

	Columns []string // Project

	SortColumns []SortColumn // Sort

	JoinType  JoinType // Join
	Condition JoinCondition
	Algorithm JoinAlgorithm

	GroupBy    []string // Aggregate
	Aggregates []AggregateFunction

	LimitCount  uint64 // Limit
	LimitOffset *uint64
}

// PlanNode is one node of the plan tree.
type PlanNode struct {
	NodeID        string
	Operation     PlanOperation
	Children      []*PlanNode
	EstimatedCost CostEstimate
	EstimatedRows uint64
	OutputColumns []string
}

// QueryPlan is the selected logical plan before execution decoration.
type QueryPlan struct {
	PlanID            string
	RootNode          *PlanNode
	EstimatedCost     CostEstimate
	EstimatedRows     uint64
	ParallelismDegree int
}

// ExecutionStrategy describes how the execution engine should run the plan.
type ExecutionStrategy struct {
	Kind   string // Sequential|Parallel|Vectorized|Streaming
	Degree int    // meaningful when Kind == Parallel
}

// ResourceRequirements estimates the resources executing the plan will need.
type ResourceRequirements struct {
	MemoryMB           uint64
	CPUCores           int
	IOOperations       uint64
	TemporaryStorageMB uint64
}

// ExecutionPlan decorates a selected QueryPlan with an execution strategy
// and resource estimate.
type ExecutionPlan struct {
	Plan                 QueryPlan
	ExecutionStrategy    ExecutionStrategy
	ResourceRequirements ResourceRequirements
}
