// Package latch implements the one-shot wakeup primitive the spec calls
// a Latch (§5, §9: "Global per-process state... becomes a context
// handle") plus the cooperative cancellation check GatherCore performs at
// the start of every Next call and WorkerSet performs on every polling
// loop iteration.
package latch

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// Latch is a per-process one-shot wakeup settable by any goroutine and
// consumed by Wait+Reset, mirroring PostgreSQL's WaitLatch/ResetLatch
// used by gather_readnext. A Set call that races ahead of a future Wait
// is not lost: the latch stays "set" until Reset is called.
type Latch struct {
	mu     sync.Mutex
	set    bool
	wakeCh chan struct{}
}

// New constructs a Latch in the unset state.
func New() *Latch {
	return &Latch{wakeCh: make(chan struct{})}
}

// Set puts the latch into the set state and wakes any current Wait call.
// Idempotent.
func (l *Latch) Set() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set {
		return
	}
	l.set = true
	close(l.wakeCh)
}

// Wait blocks until the latch is set or ctx is canceled. It does not
// reset the latch - callers call Reset explicitly, matching the
// WaitLatch/ResetLatch pairing in the original source.
func (l *Latch) Wait(ctx context.Context) error {
	l.mu.Lock()
	if l.set {
		l.mu.Unlock()
		return nil
	}
	ch := l.wakeCh
	l.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset consumes a pending wakeup, if any, so the next Wait call blocks
// until a fresh Set.
func (l *Latch) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.set {
		return
	}
	l.set = false
	l.wakeCh = make(chan struct{})
}

// CheckInterrupts returns an error if ctx has been canceled, the
// cooperative-cancellation analog of PostgreSQL's CHECK_FOR_INTERRUPTS
// invoked at the top of every loop iteration in gather_getnext and
// gather_readnext.
func CheckInterrupts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "interrupted")
	}
	return nil
}
