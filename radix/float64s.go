package radix

import (
	"github.com/exascience/dsort/internal"
	"github.com/exascience/dsort/parallel"
)

// Below this many elements, key conversion runs in the calling goroutine.
const convertGrainSize = 0x4000

// SortFloat64s sorts data in place in ascending key order (see Key).
//
// Key conversion in both directions is spread over the available logical
// CPUs for large inputs; the radix passes themselves are sequential.
func SortFloat64s(data []float64) {
	if len(data) <= 1 {
		return
	}
	keys := make([]uint64, len(data))
	convert(len(data), func(low, high int) {
		for i := low; i < high; i++ {
			keys[i] = Key(data[i])
		}
	})
	SortUint64s(keys)
	convert(len(data), func(low, high int) {
		for i := low; i < high; i++ {
			data[i] = FromKey(keys[i])
		}
	})
}

func convert(size int, f func(low, high int)) {
	if size < convertGrainSize {
		f(0, size)
		return
	}
	parallel.Range(0, size, internal.GrainBatches(size, convertGrainSize), f)
}
