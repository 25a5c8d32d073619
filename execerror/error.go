// Package execerror maps the Gather operator's cancellation and fatal
// error paths onto Go's panic/recover, the same role colexec/execerror
// plays for the vectorized engine and the role PostgreSQL's
// longjmp/PG_CATCH plays in nodeGather.c (see Design Note §9 of the
// specification this module implements).
package execerror

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError panics with err, to be caught by
// CatchVectorizedRuntimeError at the nearest call boundary. Used for
// conditions drawn from the spec's error taxonomy - a pending
// cancellation, a QueueTransportError, or a ChildPlanError propagated
// from the outer plan.
func InternalError(err error) {
	panic(err)
}

// InternalErrorf is a convenience wrapper around InternalError.
func InternalErrorf(format string, args ...interface{}) {
	InternalError(errors.Newf(format, args...))
}

// CatchVectorizedRuntimeError executes operation, catching any panic it
// raises and converting it back into a regular error.
func CatchVectorizedRuntimeError(operation func()) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			switch err := r.(type) {
			case error:
				retErr = err
			default:
				retErr = errors.Newf("unexpected panic: %v", fmt.Sprint(r))
			}
		}
	}()
	operation()
	return nil
}
