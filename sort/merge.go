/*
Package sort merges and checks sorted float64 sequences.

All functions in this package order values by their radix keys (see
radix.Key), so that they agree with radix.SortFloat64s on signed zeros
and NaNs.
*/
package sort

import (
	"github.com/exascience/dsort/parallel"
	"github.com/exascience/dsort/radix"
)

const msortGrainSize = 0x3000

/*
Merge returns a new slice with the elements of the sorted slices a and
b in ascending key order.

The merge is stable: if an element of a and an element of b have equal
keys, the element of a comes first. Large merges are split
recursively and executed in parallel; the result is identical to a
sequential two-way merge.
*/
func Merge(a, b []float64) []float64 {
	dst := make([]float64, len(a)+len(b))
	MergeInto(dst, a, b)
	return dst
}

/*
MergeInto merges the sorted slices a and b into dst, which must have
length len(a)+len(b) and must not overlap a or b.
*/
func MergeInto(dst, a, b []float64) {
	if len(dst) != len(a)+len(b) {
		panic("sort: destination length does not match merged length")
	}
	pMerge(a, b, dst)
}

// sMerge is the two-pointer merge. Ties pick from a.
func sMerge(a, b, dst []float64) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if radix.Key(a[i]) <= radix.Key(b[j]) {
			dst[k] = a[i]
			i++
		} else {
			dst[k] = b[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}

// searchEq returns the first index in s whose key is not below k.
func searchEq(s []float64, k uint64) int {
	low, high := 0, len(s)
	for low < high {
		mid := int(uint(low+high) >> 1)
		if radix.Key(s[mid]) < k {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

// searchNeq returns the first index in s whose key is above k.
func searchNeq(s []float64, k uint64) int {
	low, high := 0, len(s)
	for low < high {
		mid := int(uint(low+high) >> 1)
		if radix.Key(s[mid]) <= k {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

// pMerge splits the longer input at its midpoint, finds the matching split
// point in the other input, places the pivot, and merges both halves in
// parallel. Elements of a equal to a pivot from b stay left of it, and
// elements of b equal to a pivot from a stay right of it, which keeps the
// merge stable.
func pMerge(a, b, dst []float64) {
	n1, n2 := len(a), len(b)
	if n1+n2 < msortGrainSize {
		sMerge(a, b, dst)
		return
	}
	if n1 >= n2 {
		q1 := n1 / 2
		q2 := searchEq(b, radix.Key(a[q1]))
		q3 := q1 + q2
		dst[q3] = a[q1]
		parallel.Do(
			func() { pMerge(a[:q1], b[:q2], dst[:q3]) },
			func() { pMerge(a[q1+1:], b[q2:], dst[q3+1:]) },
		)
	} else {
		q2 := n2 / 2
		q1 := searchNeq(a, radix.Key(b[q2]))
		q3 := q1 + q2
		dst[q3] = b[q2]
		parallel.Do(
			func() { pMerge(a[:q1], b[:q2], dst[:q3]) },
			func() { pMerge(a[q1:], b[q2+1:], dst[q3+1:]) },
		)
	}
}
