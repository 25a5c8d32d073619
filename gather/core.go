// Package gather implements the Gather operator (§2-§4 of the
// specification): a fan-in node that runs N copies of a child plan in
// worker goroutines and merges their output tuples into a single stream
// consumed by a parent operator, optionally running the same plan
// locally in the leader to avoid starving the pipeline.
//
// Grounded on PostgreSQL/TBase's nodeGather.c (the operator this package
// ports) and on CockroachDB's colexec.SerialUnorderedSynchronizer /
// colexec.ParallelUnorderedSynchronizer for the Go-idiomatic shape of a
// fan-in execution node (OpNode, Init/Next/rescan/shutdown lifecycle,
// panic-based fatal-error propagation caught at the call boundary).
package gather

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riftdb/gather/crlog"
	"github.com/riftdb/gather/execerror"
	"github.com/riftdb/gather/execinfra"
	"github.com/riftdb/gather/execinfrapb"
	"github.com/riftdb/gather/gathermetrics"
	"github.com/riftdb/gather/latch"
	"github.com/riftdb/gather/parallelharness"
	"github.com/riftdb/gather/rowenc"
)

// Core is the Gather operator instance (§3 "GatherCore"). The exported
// name is Core because it lives in a package already named gather;
// other packages refer to it as gather.Core.
type Core struct {
	cfg Config

	// localPlan is the outer plan run directly by the leader - the
	// "child plan" the original spec's §6 names. It is initialized at
	// construction time, matching ExecInitGather's eager ExecInitNode
	// call on the outer plan (only worker launch is deferred to first
	// Next).
	localPlan execinfra.RowSource

	planFactory parallelharness.PlanFactory
	projection  Projection
	ambient     crlog.AmbientContext
	metrics     *gathermetrics.Metrics

	latch *latch.Latch

	initialized       bool
	needToScanLocally bool
	parallelSendDone  bool

	harness *parallelharness.Harness
	workers *WorkerSet

	waitLogLimiter *crlog.EveryN

	funnelSlot rowenc.Tuple

	stats struct {
		numTuples uint64
		totalLat  time.Duration
		maxLat    time.Duration
	}
}

// New constructs a GatherCore (§4.3.1 "init"). Workers are not launched
// yet - ExecInitGather defers that to the first call to Next, since it
// may need to allocate a large shared segment and should only do so if
// the scan is actually driven.
func New(
	cfg Config,
	localPlan execinfra.RowSource,
	planFactory parallelharness.PlanFactory,
	projection Projection,
	metrics *gathermetrics.Metrics,
) *Core {
	if projection == nil {
		projection = IdentityProjection
	}
	return &Core{
		cfg:               cfg,
		localPlan:         localPlan,
		planFactory:       planFactory,
		projection:        projection,
		metrics:           metrics,
		ambient:           crlog.MakeAmbientContext("component", "gather"),
		latch:             latch.New(),
		needToScanLocally: !cfg.SingleCopy,
		waitLogLimiter:    crlog.Every(5 * time.Second),
	}
}

// Next returns the next projected tuple, or nil at end-of-stream. Once
// it returns nil, every subsequent call also returns nil until Rescan is
// called (§3 invariant 4, "terminal-absorbing"; §8 "Terminal
// absorption").
func (c *Core) Next(ctx context.Context) (rowenc.Tuple, error) {
	ctx = c.ambient.AnnotateCtx(ctx)
	var out rowenc.Tuple
	if err := execerror.CatchVectorizedRuntimeError(func() {
		out = c.next(ctx)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// next is the panic-raising inner body of Next; fatal collaborator
// errors (QueueTransportError, ChildPlanError) are raised with
// execerror.InternalError and converted back to a normal error at the
// Next call boundary, mirroring the longjmp/PG_CATCH mapping in §9.
func (c *Core) next(ctx context.Context) rowenc.Tuple {
	if err := latch.CheckInterrupts(ctx); err != nil {
		execerror.InternalError(err)
	}

	if !c.initialized {
		c.initializeFirstCall(ctx)
	}

	// Clear the funnel slot and forget the previous tuple before asking
	// for a new one, matching ExecClearTuple(fslot)/ResetExprContext in
	// gather_getnext - there is no per-tuple arena to reset here since Go
	// tuples are independently garbage collected, but dropping the
	// reference still lets the previous tuple be reclaimed promptly.
	c.funnelSlot = nil

	if c.cfg.ParallelSend && !IsParallelWorker(ctx) {
		return c.nextParallelSend(ctx)
	}

	tuple := c.produceTuple(ctx)
	if tuple == nil {
		c.logStatsOnExhaustion(ctx)
		return nil
	}

	projected, err := c.projection(ctx, tuple)
	if err != nil {
		execerror.InternalError(errors.Wrap(err, "projection"))
	}
	return projected
}

// initializeFirstCall implements §4.3.2.
func (c *Core) initializeFirstCall(ctx context.Context) {
	if IsParallelWorker(ctx) {
		// §4.3.2 step 1: nested Gather inside a worker's own slice must
		// not launch further workers.
		c.workers = nil
		c.needToScanLocally = true
		c.initialized = true
		return
	}

	if c.cfg.NumWorkers > 0 && inParallelMode(ctx) {
		if c.harness == nil {
			numWorkers := int(c.cfg.NumWorkers)
			if c.cfg.SingleCopy {
				numWorkers = 1
			}
			c.harness = parallelharness.New(c.planFactory, numWorkers)
		} else {
			c.harness.Reinitialize()
		}

		result, err := c.harness.Launch(ctx, c.latch)
		if err != nil {
			execerror.InternalError(errors.Wrap(err, "launching workers"))
		}
		launched := c.harness.LaunchedCount()
		if c.metrics != nil {
			c.metrics.WorkersLaunched.Set(float64(launched))
		}

		if launched > 0 {
			c.workers = NewWorkerSet(result.Readers)
		} else {
			// No workers? Then never mind (§4.3.2 step 2, WorkerStartFailure
			// is not an error - §7).
			c.shutdownWorkers(ctx)
		}
	}

	if c.cfg.SingleCopy {
		// In single-copy mode the leader participates only as a fallback
		// when no worker started (§3 invariant 5; §8 "Single-copy
		// exclusivity"/"Single-copy fallback").
		c.needToScanLocally = c.workers == nil
	} else {
		c.needToScanLocally = true
	}

	c.initialized = true
}

// produceTuple implements §4.3.3's per-call tuple production loop.
func (c *Core) produceTuple(ctx context.Context) rowenc.Tuple {
	readStart := time.Now()
	for c.workers != nil || c.needToScanLocally {
		if c.workers != nil {
			outcome, err := c.workers.pollOne(ctx, c.needToScanLocally)
			if err != nil {
				execerror.InternalError(errors.Wrap(err, "reading worker queue"))
			}
			switch outcome.kind {
			case pollTuple:
				c.recordRead(ctx, time.Since(readStart))
				c.funnelSlot = outcome.tuple
				return c.funnelSlot
			case pollExhaustedAll:
				// Matches gather_readnext's call to ExecShutdownGatherWorkers
				// the moment nreaders hits zero: finish the harness right here
				// instead of waiting for Shutdown/Rescan, so worker stats and
				// errors are collected at the correct memory-fence point even
				// if this scan goes on to drain LocalExecutor.
				c.shutdownWorkers(ctx)
				continue
			case pollYieldToLocal:
				// fall through to the local attempt below
			case pollWait:
				if c.metrics != nil {
					c.metrics.LatchWaits.Inc()
				}
				if c.waitLogLimiter.ShouldLog() {
					crlog.VEventf(ctx, 1, "gather: all worker queues empty, waiting for a wakeup")
				}
				if err := c.latch.Wait(ctx); err != nil {
					execerror.InternalError(err)
				}
				c.latch.Reset()
				continue
			}
		}

		if c.needToScanLocally {
			tuple, err := c.localPlan.Next(ctx)
			if err != nil {
				execerror.InternalError(errors.Wrap(err, "local scan"))
			}
			if tuple != nil {
				return tuple
			}
			c.needToScanLocally = false
		}
	}
	return nil
}

// nextParallelSend implements the original source's parallel_send
// short-circuit (EXPANSION C.1): the leader never funnels tuples and
// instead just waits for every worker to finish, returning the empty
// sentinel on every call once that wait has completed.
func (c *Core) nextParallelSend(ctx context.Context) rowenc.Tuple {
	if c.parallelSendDone {
		return nil
	}
	if c.harness != nil {
		if err := c.harness.Finish(); err != nil {
			execerror.InternalError(errors.Wrap(err, "parallel-send worker"))
		}
	}
	c.parallelSendDone = true
	return nil
}

func (c *Core) recordRead(ctx context.Context, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.TuplesRead.Inc()
		c.metrics.ReadLatency.Observe(elapsed.Seconds())
	}
	if !c.cfg.StatisticsEnabled {
		return
	}
	c.stats.numTuples++
	c.stats.totalLat += elapsed
	if elapsed > c.stats.maxLat {
		c.stats.maxLat = elapsed
	}
}

func (c *Core) logStatsOnExhaustion(ctx context.Context) {
	if !c.cfg.StatisticsEnabled || c.stats.numTuples == 0 {
		return
	}
	stats := execinfrapb.ComponentStats{
		NumTuples:      execinfrapb.MakeOptionalUint(c.stats.numTuples),
		ReadLatency:    execinfrapb.MakeOptionalDuration(c.stats.totalLat),
		MaxReadLatency: execinfrapb.MakeOptionalDuration(c.stats.maxLat),
	}
	crlog.Infof(ctx, "gather: tuples=%d avg_read=%s", c.stats.numTuples, stats.AverageReadLatency())
}

// shutdownWorkers implements §4.3.4's shutdown_workers: destroys
// WorkerSet readers then calls harness.Finish, which must run before
// worker termination is reaped so per-worker statistics are collected
// (§5, §7). Idempotent.
func (c *Core) shutdownWorkers(ctx context.Context) {
	if c.workers != nil {
		c.workers.shutdown()
		c.workers = nil
	}
	if c.harness != nil {
		if err := c.harness.Finish(); err != nil {
			crlog.Errorf(ctx, "worker finish: %v", err)
		}
	}
}

// Shutdown implements §4.3.4's terminal teardown: shutdown_workers, then
// harness.Cleanup releases shared state and the harness is dropped.
func (c *Core) Shutdown(ctx context.Context) {
	ctx = c.ambient.AnnotateCtx(ctx)
	c.shutdownWorkers(ctx)
	if c.harness != nil {
		c.harness.Cleanup()
		c.harness = nil
	}
	c.localPlan.Shutdown(ctx)
}

// Rescan implements §4.3.4: shutdown_workers, clear initialized,
// reinitialize the harness (keeping it allocated), and rescan the
// child. The next Next call relaunches workers from scratch.
func (c *Core) Rescan(ctx context.Context) error {
	ctx = c.ambient.AnnotateCtx(ctx)
	c.shutdownWorkers(ctx)
	c.initialized = false
	c.needToScanLocally = !c.cfg.SingleCopy
	c.parallelSendDone = false
	c.stats.numTuples = 0
	c.stats.totalLat = 0
	if c.harness != nil {
		c.harness.Reinitialize()
	}
	return c.localPlan.Rescan(ctx)
}

// FinishEarly implements the spec's additional entry point (§6): it
// sets executor_done on the harness and drains Next until the empty
// sentinel is observed, used to terminate a scan whose parent has
// decided it needs no more rows (e.g. LIMIT satisfied). Grounded on the
// original source's ExecFinishGather.
func (c *Core) FinishEarly(ctx context.Context) error {
	ctx = c.ambient.AnnotateCtx(ctx)
	if c.harness != nil {
		c.harness.SetExecutorDone()
	}
	for {
		tuple, err := c.Next(ctx)
		if err != nil {
			return err
		}
		if tuple == nil {
			return nil
		}
	}
}

// ChildCount implements execinfra.OpNode.
func (c *Core) ChildCount(verbose bool) int { return 1 }

// Child implements execinfra.OpNode.
func (c *Core) Child(nth int, verbose bool) execinfra.OpNode {
	if nth != 0 {
		panic("gather.Core has exactly one child")
	}
	return c.localPlan
}
