// Package leaktest detects leaked goroutines at the end of a test,
// grounded on pkg/util/leaktest (see its use as "defer
// leaktest.AfterTest(t)()" throughout the teacher's test suites,
// including parallel_unordered_synchronizer_test.go, the test this
// module's own worker-pool tests are modeled on).
package leaktest

import (
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"
)

// interestingGoroutines returns all goroutine stacks except the handful
// that are always running as part of the Go runtime or the test binary
// itself and are never something a test leaked.
func interestingGoroutines() []string {
	buf := make([]byte, 2<<20)
	buf = buf[:runtime.Stack(buf, true)]
	var stacks []string
	for _, g := range strings.Split(string(buf), "\n\n") {
		sl := strings.SplitN(g, "\n", 2)
		if len(sl) != 2 {
			continue
		}
		stack := strings.TrimSpace(sl[1])
		if stack == "" {
			continue
		}
		if strings.Contains(stack, "testing.RunTests") ||
			strings.Contains(stack, "testing.(*T).Run") ||
			strings.Contains(stack, "leaktest.interestingGoroutines") ||
			strings.Contains(stack, "runtime.goexit") && strings.Contains(g, "created by runtime.gc") ||
			strings.Contains(stack, "signal.signal_recv") ||
			strings.Contains(stack, "created by runtime/trace") ||
			strings.Contains(stack, "runtime.MHeap_Scavenger") {
			continue
		}
		stacks = append(stacks, g)
	}
	sort.Strings(stacks)
	return stacks
}

// AfterTest snapshots the running goroutines and returns a function to
// be deferred that fails t if any goroutine present at the time the
// returned function runs wasn't present at AfterTest's call, after
// waiting briefly for natural winddown (worker goroutines a test just
// canceled may take a moment to observe ctx.Done() and exit).
func AfterTest(t testing.TB) func() {
	before := interestingGoroutines()
	return func() {
		var leaked []string
		for i := 0; i < 50; i++ {
			leaked = diff(before, interestingGoroutines())
			if len(leaked) == 0 {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Errorf("leaktest: %d leaked goroutine(s):\n%s", len(leaked), strings.Join(leaked, "\n\n"))
	}
}

func diff(before, after []string) []string {
	seen := make(map[string]bool, len(before))
	for _, g := range before {
		seen[g] = true
	}
	var extra []string
	for _, g := range after {
		if !seen[g] {
			extra = append(extra, g)
		}
	}
	return extra
}
