// Package parallelharness implements the ParallelHarness external
// collaborator named in the spec (§6): it launches worker goroutines
// that each run an independent copy of the child plan, wires each one
// to a Queue, and reaps them in the "finish"/"cleanup" two-phase
// teardown the original ExecParallelFinish/ExecParallelCleanup split
// requires (finish must complete before worker exit is reaped so
// per-worker statistics are captured, per §5 "finish is the memory-fence
// point for worker statistics").
//
// Grounded on flow_scheduler.go's goroutine-per-unit-of-work orchestration
// and on sql/distsql/server.go's use of a sync.WaitGroup to join
// worker/outbox goroutines; golang.org/x/sync/errgroup replaces the raw
// WaitGroup with one that also captures the first worker error.
package parallelharness

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/riftdb/gather/crlog"
	"github.com/riftdb/gather/execinfra"
	"github.com/riftdb/gather/execinfrapb"
	"github.com/riftdb/gather/latch"
	"github.com/riftdb/gather/rowflow"
)

// PlanFactory produces one independent, parallel-safe copy of the child
// plan per call - the moral equivalent of attaching a freshly forked
// worker process to the same query plan.
type PlanFactory func(ctx context.Context, workerID execinfrapb.WorkerID) (execinfra.RowSource, error)

// Harness launches and reaps the worker goroutines backing one Gather
// scan. It is owned exclusively by the GatherCore that created it and
// survives across rescans (§4.3.4), unlike the WorkerSet built from its
// output.
type Harness struct {
	flowID  execinfrapb.FlowID
	factory PlanFactory
	n       int

	executorDone atomic.Bool

	group       *errgroup.Group
	groupCtx    context.Context
	cancelGroup context.CancelFunc
	launched    int
}

// New constructs a Harness for capacity n workers, mirroring
// ExecInitParallelPlan's allocation of shared state sized to
// num_workers. Workers are not launched yet - that happens in Launch.
func New(factory PlanFactory, n int) *Harness {
	return &Harness{
		flowID:  execinfrapb.MakeFlowID(),
		factory: factory,
		n:       n,
	}
}

// Reinitialize resets shared state for a fresh (re)scan while keeping
// the Harness itself allocated, matching ExecParallelReinitialize.
func (h *Harness) Reinitialize() {
	h.executorDone.Store(false)
	h.launched = 0
	h.group = nil
	h.groupCtx = nil
	h.cancelGroup = nil
}

// LaunchResult is returned by Launch.
type LaunchResult struct {
	Readers []*rowflow.QueueReader
}

// Launch starts up to h.n workers, each running an independent copy of
// the child plan produced by the PlanFactory, and returns however many
// actually started - possibly fewer than requested, possibly zero
// (WorkerStartFailure in the spec's error taxonomy is explicitly not an
// error: the caller degrades gracefully). wakeup is the leader's Latch;
// each worker's Queue signals it on every push so a leader blocked on a
// full round of empty reads wakes up promptly.
func (h *Harness) Launch(ctx context.Context, wakeup *latch.Latch) (*LaunchResult, error) {
	groupCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(groupCtx)
	h.group = group
	h.groupCtx = groupCtx
	h.cancelGroup = cancel

	readers := make([]*rowflow.QueueReader, 0, h.n)
	for i := 0; i < h.n; i++ {
		workerID := execinfrapb.WorkerID(i)
		plan, err := h.factory(groupCtx, workerID)
		if err != nil {
			// This worker failed to start; degrade gracefully and keep
			// trying the rest - a single bad worker does not sink the scan.
			crlog.Warningf(ctx, "worker %d failed to start: %v", workerID, err)
			continue
		}
		q := rowflow.NewQueue(workerID, wakeup)
		readers = append(readers, rowflow.NewQueueReader(q))
		h.group.Go(func() error {
			return h.runWorker(groupCtx, workerID, plan, q)
		})
	}
	h.launched = len(readers)
	return &LaunchResult{Readers: readers}, nil
}

// runWorker drives one worker's copy of the child plan to completion,
// pushing tuples to its queue until exhausted, canceled, or the leader
// has called SetExecutorDone (the cooperative early-termination signal
// FinishEarly relies on).
func (h *Harness) runWorker(
	ctx context.Context, workerID execinfrapb.WorkerID, plan execinfra.RowSource, q *rowflow.Queue,
) error {
	defer plan.Shutdown(ctx)

	for {
		if h.executorDone.Load() {
			q.Close()
			return nil
		}
		tuple, err := plan.Next(ctx)
		if err != nil {
			if h.executorDone.Load() {
				// The context was canceled as a side effect of
				// SetExecutorDone, not a genuine plan failure.
				q.Close()
				return nil
			}
			q.Fail(errors.Wrapf(err, "worker %d", workerID))
			return err
		}
		if tuple == nil {
			q.Close()
			return nil
		}
		if err := q.Push(ctx, tuple); err != nil {
			if h.executorDone.Load() {
				q.Close()
				return nil
			}
			q.Close()
			return err
		}
	}
}

// LaunchedCount returns how many workers actually started in the most
// recent Launch call.
func (h *Harness) LaunchedCount() int { return h.launched }

// SetExecutorDone requests cooperative early termination of every
// worker - the harness's exposed executor_done flag (§6). A worker
// blocked inside Queue.Push (buffer full, nobody draining it) only
// re-checks executorDone between tuples, so this also cancels the
// workers' shared context to unblock any such Push immediately.
func (h *Harness) SetExecutorDone() {
	h.executorDone.Store(true)
	if h.cancelGroup != nil {
		h.cancelGroup()
	}
}

// Finish waits for all worker goroutines to exit and returns the first
// error any of them encountered, collecting worker statistics before
// any worker's process state is reaped - the memory-fence point
// described in §5. Finish must run even on the error shutdown path
// (§7).
func (h *Harness) Finish() error {
	if h.group == nil {
		return nil
	}
	err := h.group.Wait()
	if h.cancelGroup != nil {
		h.cancelGroup()
	}
	return err
}

// Cleanup releases the harness's shared state - the shared-memory
// segment in the original source, here just the cancellation plumbing -
// after Finish has already run. Idempotent.
func (h *Harness) Cleanup() {
	if h.cancelGroup != nil {
		h.cancelGroup()
	}
	h.group = nil
	h.groupCtx = nil
	h.cancelGroup = nil
}
