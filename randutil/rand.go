// Package randutil provides seeded math/rand sources for tests, grounded
// on pkg/util/randutil (see its use in aggregator_test.go and
// parallel_unordered_synchronizer_test.go: "rng, _ := randutil.NewPseudoRand()").
package randutil

import (
	"math/rand"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

var globalSeed int64

func init() {
	if s := os.Getenv("RANDUTIL_SEED"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			atomic.StoreInt64(&globalSeed, v)
			return
		}
	}
	atomic.StoreInt64(&globalSeed, time.Now().UnixNano())
}

// NewPseudoSeed generates a new, random seed, advancing the package's
// seed source so concurrent callers never observe the same value twice.
func NewPseudoSeed() int64 {
	return atomic.AddInt64(&globalSeed, 1+time.Now().UnixNano()%997)
}

// NewPseudoRand returns an instance of math/rand.Rand seeded from
// NewPseudoSeed, along with the seed used, which tests log on failure so
// a flake can be reproduced.
func NewPseudoRand() (*rand.Rand, int64) {
	seed := NewPseudoSeed()
	return rand.New(rand.NewSource(seed)), seed
}
