/*
Package radix sorts float64 values without comparisons.

Each value is mapped to an order-preserving uint64 key (see Key), the
keys are sorted by a least-significant-byte-first radix sort with one
stable counting pass per byte, and the sorted keys are mapped back.
*/
package radix

const (
	digitBits = 8
	buckets   = 1 << digitBits
	keyBits   = 64
)

// SortUint64s sorts keys in ascending order.
//
// It runs eight stable counting passes over 256 buckets, from the least
// significant byte to the most significant byte, and needs a scratch
// buffer of the same length as keys. Since the number of passes is even,
// the sorted result ends up in keys again.
func SortUint64s(keys []uint64) {
	if len(keys) <= 1 {
		return
	}
	src, dst := keys, make([]uint64, len(keys))
	for shift := uint(0); shift < keyBits; shift += digitBits {
		radixPass(src, dst, shift)
		src, dst = dst, src
	}
}

// radixPass distributes src into dst by the byte at shift, keeping keys
// with equal bytes in their relative order.
func radixPass(src, dst []uint64, shift uint) {
	var count [buckets + 1]int
	for _, k := range src {
		count[((k>>shift)&(buckets-1))+1]++
	}
	for i := 0; i < buckets; i++ {
		count[i+1] += count[i]
	}
	for _, k := range src {
		b := (k >> shift) & (buckets - 1)
		dst[count[b]] = k
		count[b]++
	}
}
