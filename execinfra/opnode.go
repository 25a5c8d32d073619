// Package execinfra holds the small set of lifecycle contracts shared
// across execution-tree nodes, grounded on the OpNode interface consumed
// by colexec.SerialUnorderedSynchronizer and the (historical)
// sql/distsql "processor" interface.
package execinfra

import (
	"context"

	"github.com/riftdb/gather/rowenc"
)

// OpNode is implemented by every node in the execution tree so that
// EXPLAIN and other tree-walking consumers can enumerate children
// without depending on each node's concrete type.
type OpNode interface {
	// ChildCount returns the number of children this node has.
	ChildCount(verbose bool) int
	// Child returns the nth child. Usable only when nth < ChildCount(verbose).
	Child(nth int, verbose bool) OpNode
}

// RowSource is the pull-based iterator contract the spec calls the
// "child plan": Next returns one tuple (nil at end-of-stream), Rescan
// resets for a fresh scan, and Shutdown releases resources.
//
// Gather depends on this contract for both the LocalExecutor (run in the
// leader) and, transitively, for what the parallel workers execute.
type RowSource interface {
	OpNode
	// Next returns the next tuple, or nil if the source is exhausted.
	Next(ctx context.Context) (rowenc.Tuple, error)
	// Rescan resets the source for a new scan.
	Rescan(ctx context.Context) error
	// Shutdown releases any resources held by the source.
	Shutdown(ctx context.Context)
}
