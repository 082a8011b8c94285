package f2f

import "math"

// Runtime boundary: code generated by this pass may hand floating-point
// values across an ABI edge at run time (a callback argument, a value loaded
// from memory the analysis never saw). At that edge a small C helper,
// fixpoint_convert_double(double, u64) / fixpoint_convert_single(float, u64),
// decomposes the IEEE-754 bits and reconstructs trunc(v * 2^d) as a signed
// 64-bit integer. The pass itself never calls the helpers at analysis time;
// the functions below are the Go reference for the same contract so that
// downstream code generation has a name to call and tests have an oracle.

const (
	doubleExponentBias = 1023
	doubleFractionBits = 52
	singleExponentBias = 127
	singleFractionBits = 23
)

// ConvertDoubleBoundary reconstructs trunc(v * 2^d) as a signed 64-bit
// integer from v's IEEE-754 bits. Values whose scaled magnitude exceeds 63
// bits wrap modulo 2^64; NaN and infinities are not modeled.
func ConvertDoubleBoundary(v float64, d uint64) int64 {
	bits := math.Float64bits(v)
	negative := bits>>63 != 0
	exponent := int64(bits>>doubleFractionBits) & 0x7FF
	fraction := bits & (1<<doubleFractionBits - 1)
	if exponent == 0 {
		// Zero or subnormal: below the resolution of any usable fixed-point
		// step, so the truncation is exactly zero.
		return 0
	}
	return rebuildFixed(fraction|1<<doubleFractionBits, exponent-doubleExponentBias+int64(d)-doubleFractionBits, negative)
}

// ConvertSingleBoundary is ConvertDoubleBoundary for single precision.
func ConvertSingleBoundary(v float32, d uint64) int64 {
	bits := math.Float32bits(v)
	negative := bits>>31 != 0
	exponent := int64(bits>>singleFractionBits) & 0xFF
	fraction := uint64(bits & (1<<singleFractionBits - 1))
	if exponent == 0 {
		return 0
	}
	return rebuildFixed(fraction|1<<singleFractionBits, exponent-singleExponentBias+int64(d)-singleFractionBits, negative)
}

// rebuildFixed shifts the implicit-one mantissa into fixed-point position.
// A right shift truncates toward zero because the magnitude is still
// unsigned here; the sign is applied last.
func rebuildFixed(magnitude uint64, shift int64, negative bool) int64 {
	var fixed int64
	switch {
	case shift >= 0:
		fixed = int64(magnitude << uint(shift))
	case shift > -64:
		fixed = int64(magnitude >> uint(-shift))
	}
	if negative {
		return -fixed
	}
	return fixed
}
