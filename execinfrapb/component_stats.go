package execinfrapb

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ComponentStats holds the statistics nodeGather.c tracks when
// enable_statistic is set (get_tuples, get_total_time) generalized into
// the shape component_stats.go uses elsewhere in the teacher's engine:
// an optional-valued bag of counters formatted on demand rather than
// always-present fields.
type ComponentStats struct {
	NumTuples      OptionalUint
	ReadLatency    OptionalDuration
	MaxReadLatency OptionalDuration
}

// OptionalUint is a counter that may or may not have been recorded.
type OptionalUint struct {
	value uint64
	set   bool
}

func MakeOptionalUint(v uint64) OptionalUint { return OptionalUint{value: v, set: true} }
func (o OptionalUint) HasValue() bool        { return o.set }
func (o OptionalUint) Value() uint64         { return o.value }

// OptionalDuration is a duration that may or may not have been recorded.
type OptionalDuration struct {
	value time.Duration
	set   bool
}

func MakeOptionalDuration(v time.Duration) OptionalDuration { return OptionalDuration{value: v, set: true} }
func (o OptionalDuration) HasValue() bool                   { return o.set }
func (o OptionalDuration) Value() time.Duration              { return o.value }

// StatsForQueryPlan formats the populated fields the way EXPLAIN
// ANALYZE would render them, matching component_stats.go's
// StatsForQueryPlan.
func (s *ComponentStats) StatsForQueryPlan() []string {
	var result []string
	if s.NumTuples.HasValue() {
		result = append(result, fmt.Sprintf("worker tuples: %s", humanize.Comma(int64(s.NumTuples.Value()))))
	}
	if s.ReadLatency.HasValue() {
		result = append(result, fmt.Sprintf("total read time: %s", s.ReadLatency.Value().Round(time.Microsecond)))
	}
	if s.MaxReadLatency.HasValue() {
		result = append(result, fmt.Sprintf("max read time: %s", s.MaxReadLatency.Value().Round(time.Microsecond)))
	}
	return result
}

// AverageReadLatency mirrors nodeGather.c's
// get_total_time/get_tuples ratio, logged on shutdown.
func (s *ComponentStats) AverageReadLatency() time.Duration {
	if !s.NumTuples.HasValue() || s.NumTuples.Value() == 0 || !s.ReadLatency.HasValue() {
		return 0
	}
	return s.ReadLatency.Value() / time.Duration(s.NumTuples.Value())
}
