package gather

import (
	"context"

	"github.com/riftdb/gather/latch"
	"github.com/riftdb/gather/rowenc"
	"github.com/riftdb/gather/rowflow"
)

// pollOutcome is the result of one WorkerSet.pollOne call, matching the
// four outcomes named in §4.2: Tuple, ExhaustedAll, YieldToLocal, Wait.
type pollOutcomeKind int

const (
	pollTuple pollOutcomeKind = iota
	pollExhaustedAll
	pollYieldToLocal
	pollWait
)

type pollOutcome struct {
	kind  pollOutcomeKind
	tuple rowenc.Tuple
}

// WorkerSet owns the QueueReaders for every worker launched in the
// current (re)scan cycle and performs the sticky round-robin polling
// described in §4.2. It is always non-empty while it exists (invariant
// 1 in §3): the last reader reporting done causes the GatherCore to
// drop the WorkerSet entirely rather than leaving it in an empty state.
type WorkerSet struct {
	readers    []*rowflow.QueueReader
	nReaders   int
	nextReader int
}

// NewWorkerSet constructs a WorkerSet from an ordered, non-empty
// sequence of readers in launch order.
func NewWorkerSet(readers []*rowflow.QueueReader) *WorkerSet {
	if len(readers) == 0 {
		panic("NewWorkerSet requires at least one reader")
	}
	return &WorkerSet{
		readers:  readers,
		nReaders: len(readers),
	}
}

// NumSurviving returns the current survivor count (§8, "Survivor
// monotonicity").
func (w *WorkerSet) NumSurviving() int { return w.nReaders }

// pollOne implements the §4.2 poll_one algorithm: a sticky round-robin
// scan across surviving readers that returns a tuple as soon as one is
// available, keeping the cursor pinned to whichever reader last produced
// one, and otherwise advances after every empty read until a full lap
// has been made with nothing to show.
func (w *WorkerSet) pollOne(ctx context.Context, leaderParticipating bool) (pollOutcome, error) {
	visited := 0
	for {
		if err := latch.CheckInterrupts(ctx); err != nil {
			return pollOutcome{}, err
		}

		reader := w.readers[w.nextReader]
		tuple, done, err := reader.ReadNowait()
		if err != nil {
			return pollOutcome{}, err
		}

		if done {
			reader.Destroy()
			w.removeReaderAt(w.nextReader)
			if w.nReaders == 0 {
				return pollOutcome{kind: pollExhaustedAll}, nil
			}
			if w.nextReader >= w.nReaders {
				w.nextReader = 0
			}
			// A done reader does not count as a visit.
			continue
		}

		if tuple != nil {
			// Sticky: stay on the productive reader.
			return pollOutcome{kind: pollTuple, tuple: tuple}, nil
		}

		w.nextReader++
		if w.nextReader >= w.nReaders {
			w.nextReader = 0
		}
		visited++
		if visited >= w.nReaders {
			if leaderParticipating {
				return pollOutcome{kind: pollYieldToLocal}, nil
			}
			return pollOutcome{kind: pollWait}, nil
		}
	}
}

// removeReaderAt compacts out the reader at index i by shifting the tail
// left by one, the Go equivalent of the original source's memmove over
// the reader array (§9: "Manual array shift... is an O(n) compaction
// acceptable because worker counts are small").
func (w *WorkerSet) removeReaderAt(i int) {
	copy(w.readers[i:w.nReaders-1], w.readers[i+1:w.nReaders])
	w.readers[w.nReaders-1] = nil
	w.nReaders--
}

// shutdown destroys all remaining readers. Idempotent.
func (w *WorkerSet) shutdown() {
	for i := 0; i < w.nReaders; i++ {
		w.readers[i].Destroy()
	}
	w.nReaders = 0
	w.readers = nil
}
