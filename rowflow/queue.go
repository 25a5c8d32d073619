// Package rowflow implements the shared-memory queue transport the spec
// treats as an external collaborator (§4.1, §6): a single-producer
// single-consumer channel of tuples with non-blocking reads and explicit
// end-of-stream signaling, grounded on the historical sql/distsql
// package's RowChannel (base.go) and outbox (outbox.go).
package rowflow

import (
	"context"

	"github.com/riftdb/gather/execinfrapb"
	"github.com/riftdb/gather/latch"
	"github.com/riftdb/gather/rowenc"
)

const queueBufRows = 16

// Queue is the producer-facing half of a worker's output stream. A
// worker owns exactly one Queue for the lifetime of a scan; the leader
// owns the corresponding QueueReader.
type Queue struct {
	c        chan queueMsg
	wakeup   *latch.Latch
	workerID execinfrapb.WorkerID
}

type queueMsg struct {
	tuple rowenc.Tuple
	err   error
}

// NewQueue constructs a Queue bound to worker id, optionally signaling
// wakeup every time a tuple or the done marker is pushed so a leader
// blocked in Latch.Wait is woken promptly (§5 "block-until-any-queue-readable").
func NewQueue(workerID execinfrapb.WorkerID, wakeup *latch.Latch) *Queue {
	return &Queue{
		c:        make(chan queueMsg, queueBufRows),
		wakeup:   wakeup,
		workerID: workerID,
	}
}

// Push sends a tuple produced by the worker. Blocks if the queue's
// buffer is full - the normal SPSC backpressure path; it never drops a
// tuple and never races with Close.
func (q *Queue) Push(ctx context.Context, t rowenc.Tuple) error {
	select {
	case q.c <- queueMsg{tuple: t}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if q.wakeup != nil {
		q.wakeup.Set()
	}
	return nil
}

// Fail delivers a ChildPlanError out-of-band to the reader and closes
// the queue, matching "worker-serialized error messages delivered over
// the queue out-of-band" in §7.
func (q *Queue) Fail(err error) {
	q.c <- queueMsg{err: err}
	close(q.c)
	if q.wakeup != nil {
		q.wakeup.Set()
	}
}

// Close signals normal end-of-stream: the worker has no more tuples.
func (q *Queue) Close() {
	close(q.c)
	if q.wakeup != nil {
		q.wakeup.Set()
	}
}

// QueueReader is the consuming endpoint bound to one Queue, implementing
// the §4.1 contract: read(nowait) -> (tuple?, done?).
type QueueReader struct {
	q        *Queue
	workerID execinfrapb.WorkerID
	done     bool
}

// NewQueueReader constructs a reader bound to q. The tuple descriptor
// parameter of the original contract is implicit here - tuples are
// self-describing Go values rather than wire-encoded bytes.
func NewQueueReader(q *Queue) *QueueReader {
	return &QueueReader{q: q, workerID: q.workerID}
}

// WorkerID identifies which worker this reader is attached to.
func (r *QueueReader) WorkerID() execinfrapb.WorkerID { return r.workerID }

// ReadNowait implements the §4.1 QueueReader.read(nowait=true) contract:
// it never blocks. Once done=true is returned, every subsequent call
// also returns done=true (the invariant §4.1 requires).
func (r *QueueReader) ReadNowait() (rowenc.Tuple, bool, error) {
	if r.done {
		return nil, true, nil
	}
	select {
	case msg, ok := <-r.q.c:
		if !ok {
			r.done = true
			return nil, true, nil
		}
		if msg.err != nil {
			r.done = true
			return nil, true, msg.err
		}
		return msg.tuple, false, nil
	default:
		return nil, false, nil
	}
}

// Destroy drains and releases the reader, matching the §4.1 destructor
// contract ("drains and releases").
func (r *QueueReader) Destroy() {
	if r.done {
		return
	}
	for range r.q.c {
	}
	r.done = true
}
