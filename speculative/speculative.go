/*
Package speculative provides parallel predicates that terminate early
as soon as their final result is known.

RangeAnd returns false as soon as any of the predicates invoked in
parallel returns false, without waiting for the remaining predicates.
The remaining predicates are not stopped; they keep running until
they return on their own. Predicates that scan large ranges should
therefore check a shared flag now and then, as the sortedness check
in package sort does.
*/
package speculative

import (
	"fmt"
	"sync"

	"github.com/exascience/dsort/internal"
)

/*
RangeAnd receives a range, a batch count, and a range predicate,
divides the range into batches, and invokes the range predicate for
each of these batches in parallel.

The range is specified by a low and high integer, with low <=
high. The batches are determined by dividing up the size of the range
(high - low) by n. If n is 0, a reasonable default is used that takes
runtime.GOMAXPROCS(0) into account.

RangeAnd returns true if all range predicates return true; or it
returns false when the left half of a split returns false, without
waiting for the right half to terminate.

RangeAnd panics if high < low, or if n < 0.

If a range predicate panics and RangeAnd waits for it, the panic is
propagated to the caller of RangeAnd.
*/
func RangeAnd(low, high, n int, f func(low, high int) bool) bool {
	var recur func(int, int, int) bool
	recur = func(low, high, n int) bool {
		switch {
		case n == 1:
			return f(low, high)
		case n > 1:
			batchSize := ((high - low - 1) / n) + 1
			half := n / 2
			mid := low + batchSize*half
			if mid >= high {
				return f(low, high)
			}
			var b1 bool
			var p interface{}
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer func() {
					p = internal.WrapPanic(recover())
					wg.Done()
				}()
				b1 = recur(mid, high, n-half)
			}()
			if !recur(low, mid, half) {
				return false
			}
			wg.Wait()
			if p != nil {
				panic(p)
			}
			return b1
		default:
			panic(fmt.Sprintf("invalid number of batches: %v", n))
		}
	}
	return recur(low, high, internal.ComputeNofBatches(low, high, n))
}
