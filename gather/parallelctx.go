package gather

import "context"

// workerCtxKey and parallelModeCtxKey thread the "current process is
// itself a parallel worker" flag and the "transaction permits
// parallelism" flag through context.Context, replacing the global
// per-process state (IsParallelWorker(), IsInParallelMode()) that
// nodeGather.c reads directly (§9, Design Notes: "Global per-process
// state... becomes a context handle").
type ctxKey int

const (
	workerCtxKey ctxKey = iota
	parallelModeCtxKey
)

// WithParallelWorker marks ctx as running inside a parallel worker's
// own slice of execution, so that any nested Gather node in that
// worker's plan knows not to launch further workers (§4.3.2, step 1).
func WithParallelWorker(ctx context.Context) context.Context {
	return context.WithValue(ctx, workerCtxKey, true)
}

// IsParallelWorker reports whether ctx was derived from a call to
// WithParallelWorker.
func IsParallelWorker(ctx context.Context) bool {
	v, _ := ctx.Value(workerCtxKey).(bool)
	return v
}

// WithParallelModeDisabled marks ctx as belonging to a transaction that
// does not permit parallel execution (e.g. inside an explicit
// multi-statement transaction holding locks workers could not see),
// mirroring the !IsInParallelMode() branch in §4.3.2 step 2.
func WithParallelModeDisabled(ctx context.Context) context.Context {
	return context.WithValue(ctx, parallelModeCtxKey, true)
}

// inParallelMode reports whether ctx permits launching workers.
func inParallelMode(ctx context.Context) bool {
	disabled, _ := ctx.Value(parallelModeCtxKey).(bool)
	return !disabled
}
