package parallelharness

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/gather/childplan"
	"github.com/riftdb/gather/execinfra"
	"github.com/riftdb/gather/execinfrapb"
	"github.com/riftdb/gather/latch"
	"github.com/riftdb/gather/leaktest"
	"github.com/riftdb/gather/rowenc"
)

func buildTable(n int) *childplan.Table {
	rows := make([]rowenc.Tuple, n)
	for i := 0; i < n; i++ {
		rows[i] = rowenc.Tuple{i}
	}
	return &childplan.Table{Rows: rows}
}

func drainReader(t *testing.T, factory func() (rowenc.Tuple, bool, error)) []rowenc.Tuple {
	t.Helper()
	var got []rowenc.Tuple
	for {
		tuple, done, err := factory()
		require.NoError(t, err)
		if done {
			return got
		}
		if tuple != nil {
			got = append(got, tuple)
		}
	}
}

func TestHarnessLaunchAndFinish(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()

	const n = 12
	const numWorkers = 4
	table := buildTable(n)

	h := New(func(_ context.Context, workerID execinfrapb.WorkerID) (execinfra.RowSource, error) {
		return childplan.NewPartition(table, numWorkers, int(workerID)), nil
	}, numWorkers)

	result, err := h.Launch(ctx, latch.New())
	require.NoError(t, err)
	require.Equal(t, numWorkers, h.LaunchedCount())
	require.Len(t, result.Readers, numWorkers)

	total := 0
	for _, r := range result.Readers {
		total += len(drainReader(t, r.ReadNowait))
	}
	require.Equal(t, n, total)
	require.NoError(t, h.Finish())
	h.Cleanup()
}

func TestHarnessDegradesOnPartialStartFailure(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()

	const numWorkers = 3
	h := New(func(_ context.Context, workerID execinfrapb.WorkerID) (execinfra.RowSource, error) {
		if workerID == 1 {
			return nil, errors.New("boom")
		}
		return childplan.NewFullScan(&childplan.Table{Rows: []rowenc.Tuple{{workerID}}}), nil
	}, numWorkers)

	result, err := h.Launch(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, numWorkers-1, h.LaunchedCount())
	require.Len(t, result.Readers, numWorkers-1)
	require.NoError(t, h.Finish())
	h.Cleanup()
}

// infiniteScan never reports end-of-stream on its own; it exists only to
// exercise SetExecutorDone's cooperative termination path.
type infiniteScan struct{}

func (infiniteScan) Next(ctx context.Context) (rowenc.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rowenc.Tuple{0}, nil
}
func (infiniteScan) Rescan(context.Context) error { return nil }
func (infiniteScan) Shutdown(context.Context)     {}
func (infiniteScan) ChildCount(verbose bool) int  { return 0 }
func (infiniteScan) Child(int, bool) execinfra.OpNode {
	panic("infiniteScan has no children")
}

func TestHarnessSetExecutorDoneStopsWorkers(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()

	h := New(func(context.Context, execinfrapb.WorkerID) (execinfra.RowSource, error) {
		return infiniteScan{}, nil
	}, 2)

	result, err := h.Launch(ctx, nil)
	require.NoError(t, err)
	require.Len(t, result.Readers, 2)

	h.SetExecutorDone()
	require.NoError(t, h.Finish())
	h.Cleanup()
}

func TestHarnessReinitializeAllowsRelaunch(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()

	table := buildTable(4)
	h := New(func(_ context.Context, workerID execinfrapb.WorkerID) (execinfra.RowSource, error) {
		return childplan.NewFullScan(table), nil
	}, 1)

	_, err := h.Launch(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, h.Finish())
	h.Reinitialize()

	_, err = h.Launch(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, h.LaunchedCount())
	require.NoError(t, h.Finish())
	h.Cleanup()
}
