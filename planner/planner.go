// Package planner turns a parsed query and registered table metadata into a
// cost-selected execution plan.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package planner

import (
	"math"
	"sort"
	"sync"

	"github.com/dotlanth/dotvm/cmn"
)

// Planner generates and selects query execution plans from registered table
// metadata. It is safe for concurrent use: table registration and plan
// generation both take the same mutex, matching the single-writer-many-
// readers discipline used elsewhere in this module (document.Store,
// checkpoint.Manager).
type Planner struct {
	mu        sync.RWMutex
	costModel CostModel
	tables    map[string]TableMetadata
}

// New creates a Planner using the default cost model.
func New() *Planner {
	return &Planner{costModel: DefaultCostModel(), tables: make(map[string]TableMetadata)}
}

// NewWithCostModel creates a Planner using a caller-supplied cost model.
func NewWithCostModel(cm CostModel) *Planner {
	return &Planner{costModel: cm, tables: make(map[string]TableMetadata)}
}

// RegisterTable records or replaces metadata for table.
func (p *Planner) RegisterTable(table string, meta TableMetadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables[table] = meta
}

func (p *Planner) lookupTable(table string) (TableMetadata, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	meta, ok := p.tables[table]
	return meta, ok
}

// GeneratePlan builds the minimum-cost execution plan for query.
// Returns a Validation error (InvalidQuery) if a
// referenced table is unknown, NotFound (NoExecutionPlan) if no scan
// alternative could be generated, or Internal (CostEstimationFailed) on a
// non-finite cost.
func (p *Planner) GeneratePlan(query *ParsedQuery) (*QueryPlan, error) {
	alternatives, err := p.generateScanAlternatives(query.FromTable)
	if err != nil {
		return nil, err
	}

	plans := make([]*PlanNode, 0, len(alternatives))
	for _, scan := range alternatives {
		node := scan

		if len(query.WherePredicates) > 0 {
			node, err = p.addFilterNode(node, query.WherePredicates)
			if err != nil {
				return nil, err
			}
		}
		for _, join := range query.Joins {
			node, err = p.addJoinNode(node, &join)
			if err != nil {
				return nil, err
			}
		}
		if len(query.GroupBy) > 0 || len(query.Aggregates) > 0 {
			node = p.addAggregateNode(node, query.GroupBy, query.Aggregates)
		}
		if len(query.OrderBy) > 0 {
			node = p.addSortNode(node, query.OrderBy)
		}
		if query.Limit != nil {
			node = p.addLimitNode(node, *query.Limit, query.Offset)
		}
		node, err = p.addProjectionNode(node, query.SelectColumns)
		if err != nil {
			return nil, err
		}

		if err := validateFiniteCost(node.EstimatedCost); err != nil {
			return nil, err
		}
		plans = append(plans, node)
	}

	if len(plans) == 0 {
		return nil, cmn.NotFoundf("planner.GeneratePlan", "no execution plan: no valid alternatives generated")
	}

	best := selectBestPlan(plans)
	return &QueryPlan{
		PlanID:            "plan_" + cmn.GenUUID(),
		RootNode:          best,
		EstimatedCost:     best.EstimatedCost,
		EstimatedRows:     best.EstimatedRows,
		ParallelismDegree: 1,
	}, nil
}

// selectBestPlan picks the minimum-total-cost plan, tie-breaking by the
// smaller estimated row count.
func selectBestPlan(plans []*PlanNode) *PlanNode {
	best := plans[0]
	for _, candidate := range plans[1:] {
		if candidate.EstimatedCost.TotalCost < best.EstimatedCost.TotalCost {
			best = candidate
			continue
		}
		if candidate.EstimatedCost.TotalCost == best.EstimatedCost.TotalCost &&
			candidate.EstimatedRows < best.EstimatedRows {
			best = candidate
		}
	}
	return best
}

func validateFiniteCost(c CostEstimate) error {
	if math.IsNaN(c.TotalCost) || math.IsInf(c.TotalCost, 0) {
		return cmn.NewError(cmn.KindInternal, "planner.validateFiniteCost", "cost estimation failed: non-finite total cost", nil)
	}
	return nil
}

func (p *Planner) generateScanAlternatives(table string) ([]*PlanNode, error) {
	meta, ok := p.lookupTable(table)
	if !ok {
		return nil, cmn.Validationf("planner.generateScanAlternatives", "invalid query: table %q not found", table)
	}

	columns := sortedColumnNames(meta.Columns)

	alternatives := []*PlanNode{{
		NodeID:        "scan_" + cmn.GenUUID(),
		Operation:     PlanOperation{Kind: "TableScan", Table: table},
		EstimatedCost: p.costModel.tableScan(meta.RowCount, 1.0),
		EstimatedRows: meta.RowCount,
		OutputColumns: columns,
	}}

	for _, index := range meta.AvailableIndexes {
		rows := meta.RowCount / 10
		pages := meta.RowCount / 100
		alternatives = append(alternatives, &PlanNode{
			NodeID:        "index_scan_" + cmn.GenUUID(),
			Operation:     PlanOperation{Kind: "IndexScan", Table: table, Index: index},
			EstimatedCost: p.costModel.indexScan(rows, pages),
			EstimatedRows: rows,
			OutputColumns: columns,
		})
	}
	return alternatives, nil
}

func sortedColumnNames(columns map[string]ColumnInfo) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Planner) addFilterNode(child *PlanNode, predicates []QueryPredicate) (*PlanNode, error) {
	selectivity := 1.0
	for _, pred := range predicates {
		selectivity *= pred.selectivity()
	}
	rows := uint64(float64(child.EstimatedRows) * selectivity)
	return &PlanNode{
		NodeID:        "filter_" + cmn.GenUUID(),
		Operation:     PlanOperation{Kind: "Filter", Predicates: predicates},
		Children:      []*PlanNode{child},
		EstimatedCost: p.costModel.filter(child.EstimatedRows),
		EstimatedRows: rows,
		OutputColumns: child.OutputColumns,
	}, nil
}

func (p *Planner) addJoinNode(left *PlanNode, join *JoinSpec) (*PlanNode, error) {
	rightMeta, ok := p.lookupTable(join.Table)
	if !ok {
		return nil, cmn.Validationf("planner.addJoinNode", "invalid query: table %q not found", join.Table)
	}
	right := &PlanNode{
		NodeID:        "scan_" + cmn.GenUUID(),
		Operation:     PlanOperation{Kind: "TableScan", Table: join.Table},
		EstimatedCost: p.costModel.tableScan(rightMeta.RowCount, 1.0),
		EstimatedRows: rightMeta.RowCount,
		OutputColumns: sortedColumnNames(rightMeta.Columns),
	}

	estimatedRows := estimateJoinRows(join.JoinType, left.EstimatedRows, right.EstimatedRows)

	return &PlanNode{
		NodeID: "join_" + cmn.GenUUID(),
		Operation: PlanOperation{
			Kind:      "Join",
			JoinType:  join.JoinType,
			Condition: join.Condition,
			Algorithm: AlgoHashJoin,
		},
		Children:      []*PlanNode{left, right},
		EstimatedCost: p.costModel.join(left.EstimatedRows, right.EstimatedRows),
		EstimatedRows: estimatedRows,
	}, nil
}

// estimateJoinRows applies the join-type-specific row heuristics:
// inner left*right*0.1, left-outer left, cross
// left*right, everything else defaults to left (conservative).
func estimateJoinRows(joinType JoinType, leftRows, rightRows uint64) uint64 {
	switch joinType {
	case JoinInner:
		return uint64(float64(leftRows) * float64(rightRows) * 0.1)
	case JoinLeftOuter:
		return leftRows
	case JoinCross:
		return leftRows * rightRows
	default:
		return leftRows
	}
}

func (p *Planner) addAggregateNode(child *PlanNode, groupBy []string, aggregates []AggregateFunction) *PlanNode {
	groups := uint64(1)
	if len(groupBy) > 0 {
		groups = child.EstimatedRows / 10
		if groups == 0 {
			groups = 1
		}
	}

	output := append([]string{}, groupBy...)
	for _, agg := range aggregates {
		output = append(output, agg.Alias)
	}

	return &PlanNode{
		NodeID:        "agg_" + cmn.GenUUID(),
		Operation:     PlanOperation{Kind: "Aggregate", GroupBy: groupBy, Aggregates: aggregates},
		Children:      []*PlanNode{child},
		EstimatedCost: p.costModel.aggregate(child.EstimatedRows, groups),
		EstimatedRows: groups,
		OutputColumns: output,
	}
}

func (p *Planner) addSortNode(child *PlanNode, columns []SortColumn) *PlanNode {
	return &PlanNode{
		NodeID:        "sort_" + cmn.GenUUID(),
		Operation:     PlanOperation{Kind: "Sort", SortColumns: columns},
		Children:      []*PlanNode{child},
		EstimatedCost: p.costModel.sort(child.EstimatedRows, len(columns)),
		EstimatedRows: child.EstimatedRows,
		OutputColumns: child.OutputColumns,
	}
}

func (p *Planner) addLimitNode(child *PlanNode, count uint64, offset *uint64) *PlanNode {
	off := uint64(0)
	if offset != nil {
		off = *offset
	}
	rows := child.EstimatedRows
	if count+off < rows {
		rows = count + off
	}
	return &PlanNode{
		NodeID:        "limit_" + cmn.GenUUID(),
		Operation:     PlanOperation{Kind: "Limit", LimitCount: count, LimitOffset: offset},
		Children:      []*PlanNode{child},
		EstimatedCost: p.costModel.limit(),
		EstimatedRows: rows,
		OutputColumns: child.OutputColumns,
	}
}

func (p *Planner) addProjectionNode(child *PlanNode, columns []string) (*PlanNode, error) {
	return &PlanNode{
		NodeID:        "proj_" + cmn.GenUUID(),
		Operation:     PlanOperation{Kind: "Project", Columns: columns},
		Children:      []*PlanNode{child},
		EstimatedCost: p.costModel.project(child.EstimatedRows),
		EstimatedRows: child.EstimatedRows,
		OutputColumns: columns,
	}, nil
}

// CreateExecutionPlan decorates plan with an ExecutionStrategy (parallel
// above 100,000 estimated rows, else sequential) and its estimated resource
// requirements.
func (p *Planner) CreateExecutionPlan(plan *QueryPlan) *ExecutionPlan {
	strategy := ExecutionStrategy{Kind: "Sequential"}
	if plan.EstimatedRows > 100000 {
		strategy = ExecutionStrategy{Kind: "Parallel", Degree: 4}
	}
	return &ExecutionPlan{
		Plan:                 *plan,
		ExecutionStrategy:    strategy,
		ResourceRequirements: estimateResourceRequirements(plan.RootNode),
	}
}

func estimateResourceRequirements(node *PlanNode) ResourceRequirements {
	var memoryMB, ioOps uint64

	switch node.Operation.Kind {
	case "TableScan", "IndexScan":
		ioOps += node.EstimatedRows / 100
	case "Sort":
		memoryMB += (node.EstimatedRows * 64) / (1024 * 1024)
	case "Join":
		if node.Operation.Algorithm == AlgoHashJoin {
			memoryMB += (node.EstimatedRows * 32) / (1024 * 1024)
		}
	}

	for _, child := range node.Children {
		childReqs := estimateResourceRequirements(child)
		memoryMB += childReqs.MemoryMB
		ioOps += childReqs.IOOperations
	}

	return ResourceRequirements{
		MemoryMB:           memoryMB,
		CPUCores:           1,
		IOOperations:       ioOps,
		TemporaryStorageMB: memoryMB / 2,
	}
}
