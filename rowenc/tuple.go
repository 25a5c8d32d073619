// Package rowenc defines the tuple shape that flows between the child
// plan, the parallel workers, and the Gather operator - the row-oriented
// analog of sqlbase.EncDatumRow from the teacher's distsql package.
package rowenc

import "fmt"

// Datum is a single column value. The operator never interprets datum
// contents - they pass through Gather untouched, exactly as the spec
// treats the expression evaluator and child plan as external
// collaborators.
type Datum = interface{}

// Tuple is one row produced by the child plan, transmitted through a
// worker queue, or returned by Gather to its parent.
type Tuple []Datum

func (t Tuple) String() string {
	return fmt.Sprintf("%v", []Datum(t))
}

// ColumnDesc describes one output column of a plan.
type ColumnDesc struct {
	Name string
	Type string
}

// TupleDesc describes a plan's output columns (childplan.Table carries
// one). Gather does not read it; tuples pass through untyped.
type TupleDesc []ColumnDesc
