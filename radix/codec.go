package radix

import "math"

const signBit = uint64(1) << 63

// Key maps f to an unsigned key whose numeric order matches the order of
// the floating-point values. Negative values, including -0.0, have all
// bits flipped; non-negative values get the sign bit set. As a result
// -0.0 sorts immediately before +0.0.
//
// NaN values are accepted and round-trip bit-exactly through FromKey, but
// they sort wherever their bit pattern falls: NaNs with the sign bit set
// come before -Inf, the others after +Inf. This differs from IEEE 754
// comparison, under which NaN is unordered.
func Key(f float64) uint64 {
	u := math.Float64bits(f)
	if u&signBit != 0 {
		return ^u
	}
	return u | signBit
}

// FromKey is the inverse of Key.
func FromKey(k uint64) float64 {
	if k&signBit != 0 {
		return math.Float64frombits(k &^ signBit)
	}
	return math.Float64frombits(^k)
}

// Less reports whether x sorts before y under the key order.
func Less(x, y float64) bool {
	return Key(x) < Key(y)
}
