package gather

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/gather/randutil"
	"github.com/riftdb/gather/rowenc"
	"github.com/riftdb/gather/rowflow"
)

func newTestReader(t *testing.T) (*rowflow.Queue, *rowflow.QueueReader) {
	t.Helper()
	q := rowflow.NewQueue(0, nil)
	return q, rowflow.NewQueueReader(q)
}

// TestWorkerSetStickyPolling covers §8's "a reader that just produced a
// tuple is polled again before the cursor advances" - the sticky
// round-robin behavior in pollOne.
func TestWorkerSetStickyPolling(t *testing.T) {
	ctx := context.Background()
	q0, r0 := newTestReader(t)
	_, r1 := newTestReader(t)

	require.NoError(t, q0.Push(ctx, rowenc.Tuple{"a"}))
	require.NoError(t, q0.Push(ctx, rowenc.Tuple{"b"}))

	ws := NewWorkerSet([]*rowflow.QueueReader{r0, r1})

	out, err := ws.pollOne(ctx, false)
	require.NoError(t, err)
	require.Equal(t, pollTuple, out.kind)
	require.Equal(t, rowenc.Tuple{"a"}, out.tuple)

	// Sticky: the same reader (index 0) produces again without the
	// cursor having advanced to r1.
	out, err = ws.pollOne(ctx, false)
	require.NoError(t, err)
	require.Equal(t, pollTuple, out.kind)
	require.Equal(t, rowenc.Tuple{"b"}, out.tuple)
}

// TestWorkerSetExhaustionCompaction covers a reader reporting done
// mid-poll: it is removed without counting as a visited lap, and the
// remaining survivor is still reachable.
func TestWorkerSetExhaustionCompaction(t *testing.T) {
	ctx := context.Background()
	q0, r0 := newTestReader(t)
	q1, r1 := newTestReader(t)

	q0.Close() // r0 is immediately exhausted
	require.NoError(t, q1.Push(ctx, rowenc.Tuple{"x"}))

	ws := NewWorkerSet([]*rowflow.QueueReader{r0, r1})
	require.Equal(t, 2, ws.NumSurviving())

	out, err := ws.pollOne(ctx, false)
	require.NoError(t, err)
	require.Equal(t, pollTuple, out.kind)
	require.Equal(t, rowenc.Tuple{"x"}, out.tuple)
	require.Equal(t, 1, ws.NumSurviving())
}

// TestWorkerSetExhaustedAll covers the last-survivor-done transition.
func TestWorkerSetExhaustedAll(t *testing.T) {
	ctx := context.Background()
	q0, r0 := newTestReader(t)
	q0.Close()

	ws := NewWorkerSet([]*rowflow.QueueReader{r0})
	out, err := ws.pollOne(ctx, false)
	require.NoError(t, err)
	require.Equal(t, pollExhaustedAll, out.kind)
	require.Equal(t, 0, ws.NumSurviving())
}

// TestWorkerSetYieldOrWait covers the full-lap-empty outcome branching
// on leaderParticipating.
func TestWorkerSetYieldOrWait(t *testing.T) {
	ctx := context.Background()
	_, r0 := newTestReader(t)
	_, r1 := newTestReader(t)

	wsWait := NewWorkerSet([]*rowflow.QueueReader{r0, r1})
	out, err := wsWait.pollOne(ctx, false)
	require.NoError(t, err)
	require.Equal(t, pollWait, out.kind)

	_, r2 := newTestReader(t)
	_, r3 := newTestReader(t)
	wsYield := NewWorkerSet([]*rowflow.QueueReader{r2, r3})
	out, err = wsYield.pollOne(ctx, true)
	require.NoError(t, err)
	require.Equal(t, pollYieldToLocal, out.kind)
}

func TestNewWorkerSetPanicsOnEmpty(t *testing.T) {
	require.Panics(t, func() {
		NewWorkerSet(nil)
	})
}

// TestWorkerSetRandomizedPartitionCoverage fuzzes the number of readers
// and the number of tuples loaded into each one, then drains the
// WorkerSet via pollOne and checks that every tuple that went in comes
// back out exactly once, regardless of the random partition sizes.
func TestWorkerSetRandomizedPartitionCoverage(t *testing.T) {
	ctx := context.Background()
	rng, seed := randutil.NewPseudoRand()
	t.Logf("seed: %d", seed)

	numReaders := 1 + rng.Intn(8)
	var readers []*rowflow.QueueReader
	want := make(map[string]int)
	for i := 0; i < numReaders; i++ {
		q, r := newTestReader(t)
		n := rng.Intn(10)
		for j := 0; j < n; j++ {
			v := fmt.Sprintf("r%d-t%d", i, j)
			require.NoError(t, q.Push(ctx, rowenc.Tuple{v}))
			want[v]++
		}
		q.Close()
		readers = append(readers, r)
	}

	ws := NewWorkerSet(readers)
	got := make(map[string]int)
	for {
		out, err := ws.pollOne(ctx, false)
		require.NoError(t, err)
		switch out.kind {
		case pollTuple:
			got[fmt.Sprint(out.tuple[0])]++
		case pollExhaustedAll:
			require.Equal(t, want, got)
			return
		default:
			t.Fatalf("unexpected poll outcome %v with no leader participating and no pending tuples", out.kind)
		}
	}
}
