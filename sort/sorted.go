package sort

import (
	"sync/atomic"

	"github.com/exascience/dsort/radix"
	"github.com/exascience/dsort/speculative"
)

const checkGrainSize = 0x500

/*
Float64sAreSorted determines in parallel whether a is sorted in
ascending key order. It attempts to terminate early when the return
value is false.
*/
func Float64sAreSorted(a []float64) bool {
	size := len(a)
	if size < checkGrainSize {
		return isSorted(a, 1, size, nil)
	}
	var done int32
	defer atomic.StoreInt32(&done, 1)
	return speculative.RangeAnd(1, size, (size-1)/checkGrainSize, func(low, high int) bool {
		return isSorted(a, low, high, &done)
	})
}

// isSorted compares every element in [low, high) with its predecessor.
// A non-nil done flag is polled to give up once the overall result is known.
func isSorted(a []float64, low, high int, done *int32) bool {
	for i := low; i < high; i++ {
		if done != nil && (i%1024) == 0 && atomic.LoadInt32(done) != 0 {
			return false
		}
		if radix.Key(a[i]) < radix.Key(a[i-1]) {
			return false
		}
	}
	return true
}
