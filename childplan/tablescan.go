// Package childplan provides a minimal, parallel-safe scan operator used
// by tests and the CLI demo to stand in for the spec's "child plan"
// external collaborator. Each copy of the scan reads a disjoint slice of
// an in-memory table, the same partitioning discipline a parallel-aware
// SeqScan gives its workers in the original source.
package childplan

import (
	"context"

	"github.com/riftdb/gather/execinfra"
	"github.com/riftdb/gather/rowenc"
)

// Table is an in-memory relation the TableScan partitions across
// workers.
type Table struct {
	Desc rowenc.TupleDesc
	Rows []rowenc.Tuple
}

// TableScan is a parallel-safe leaf operator: NewPartition(n, i) gives
// worker i one of n disjoint row-index partitions of the same Table, so
// running n copies produces a partition of the full rowset with no
// duplicates, satisfying the spec's "parallel-safe" requirement (§1,
// Non-goals; GLOSSARY).
type TableScan struct {
	table *Table
	start int
	end   int
	pos   int
}

var _ execinfra.RowSource = &TableScan{}

// NewPartition builds the partition-th of numPartitions TableScans over
// table, striping rows round-robin-free by contiguous range so that the
// union of all partitions' rows is exactly table.Rows and no row is
// assigned twice.
func NewPartition(table *Table, numPartitions, partition int) *TableScan {
	n := len(table.Rows)
	chunk := (n + numPartitions - 1) / numPartitions
	start := partition * chunk
	end := start + chunk
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	return &TableScan{table: table, start: start, end: end, pos: start}
}

// NewFullScan builds a TableScan over the entire table - used as the
// LocalExecutor, or as the sole worker's plan in single-copy mode.
func NewFullScan(table *Table) *TableScan {
	return &TableScan{table: table, start: 0, end: len(table.Rows), pos: 0}
}

// Next implements execinfra.RowSource.
func (s *TableScan) Next(ctx context.Context) (rowenc.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= s.end {
		return nil, nil
	}
	row := s.table.Rows[s.pos]
	s.pos++
	return row, nil
}

// Rescan implements execinfra.RowSource.
func (s *TableScan) Rescan(ctx context.Context) error {
	s.pos = s.start
	return nil
}

// Shutdown implements execinfra.RowSource.
func (s *TableScan) Shutdown(ctx context.Context) {}

// ChildCount implements execinfra.OpNode.
func (s *TableScan) ChildCount(verbose bool) int { return 0 }

// Child implements execinfra.OpNode.
func (s *TableScan) Child(nth int, verbose bool) execinfra.OpNode {
	panic("TableScan has no children")
}
