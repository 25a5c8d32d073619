package gather

// Config enumerates the Gather operator's configuration, exactly the
// set named in §6: the macro-guarded variant behavior in the original
// source (parallel_send short-circuit, statistics accumulation,
// nested-Gather suppression) is exposed here as explicit fields rather
// than compile-time toggles, per §9's Design Notes.
type Config struct {
	// NumWorkers is the planner's target worker count.
	NumWorkers uint32
	// SingleCopy, when true, uses exactly one worker and the leader does
	// not participate locally unless no worker could be launched.
	SingleCopy bool
	// ParallelSend inverts the tuple flow: workers push tuples directly
	// to the consumer rather than through the leader's funnel. In this
	// mode Next waits for all workers to finish and immediately returns
	// the empty sentinel.
	ParallelSend bool
	// StatisticsEnabled accumulates tuple count and total read latency of
	// worker-sourced tuples and logs a summary once the scan is exhausted.
	// It does not gate gathermetrics: a non-nil Metrics passed to New is
	// updated whether or not this is set.
	StatisticsEnabled bool
}
