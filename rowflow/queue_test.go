package rowflow

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/gather/execinfrapb"
	"github.com/riftdb/gather/latch"
	"github.com/riftdb/gather/rowenc"
)

func TestQueuePushAndReadNowait(t *testing.T) {
	ctx := context.Background()
	wakeup := latch.New()
	q := NewQueue(execinfrapb.WorkerID(0), wakeup)
	r := NewQueueReader(q)

	// Nothing pushed yet: a nowait read must not block and must report
	// neither a tuple nor done.
	tuple, done, err := r.ReadNowait()
	require.NoError(t, err)
	require.False(t, done)
	require.Nil(t, tuple)

	require.NoError(t, q.Push(ctx, rowenc.Tuple{1}))
	tuple, done, err = r.ReadNowait()
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, rowenc.Tuple{1}, tuple)

	q.Close()
	tuple, done, err = r.ReadNowait()
	require.NoError(t, err)
	require.True(t, done)
	require.Nil(t, tuple)

	// Done is sticky: further reads keep reporting done without
	// re-inspecting the closed channel.
	tuple, done, err = r.ReadNowait()
	require.NoError(t, err)
	require.True(t, done)
	require.Nil(t, tuple)
}

func TestQueueFailDeliversErrorThenDone(t *testing.T) {
	q := NewQueue(execinfrapb.WorkerID(1), nil)
	r := NewQueueReader(q)

	boom := errors.New("boom")
	q.Fail(boom)

	_, done, err := r.ReadNowait()
	require.True(t, done)
	require.Equal(t, boom, err)

	// Subsequent reads are done with no error, matching the "once done,
	// always done" contract - the error is delivered exactly once.
	_, done, err = r.ReadNowait()
	require.True(t, done)
	require.NoError(t, err)
}

func TestQueueReaderDestroyDrainsRemaining(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(execinfrapb.WorkerID(2), nil)
	r := NewQueueReader(q)

	require.NoError(t, q.Push(ctx, rowenc.Tuple{1}))
	require.NoError(t, q.Push(ctx, rowenc.Tuple{2}))
	q.Close()

	r.Destroy()
	_, done, err := r.ReadNowait()
	require.NoError(t, err)
	require.True(t, done)

	// Destroy is idempotent.
	r.Destroy()
}
