package common

import "math"

// Float16bits converts a float32 to its IEEE-754 half-precision bit pattern
// with round-to-nearest-even. Out-of-range magnitudes clamp to infinity.
//
// Parameters:
//   - f: the value to convert
//
// Returns:
//   - uint16: the half-precision bits
func Float16bits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF

	switch {
	case exp >= 0x1F:
		// Overflow and infinity map to infinity; NaN keeps a mantissa bit.
		if int32(bits>>23&0xFF) == 0xFF && mant != 0 {
			return sign | 0x7E00
		}
		return sign | 0x7C00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		// Subnormal: shift the implicit leading bit into the mantissa.
		mant |= 0x800000
		shift := uint32(14 - exp)
		half := uint16(mant >> shift)
		if mant>>(shift-1)&1 != 0 {
			half++
		}
		return sign | half
	default:
		half := sign | uint16(exp)<<10 | uint16(mant>>13)
		if mant&0x1FFF > 0x1000 || (mant&0x1FFF == 0x1000 && half&1 != 0) {
			half++
		}
		return half
	}
}

// Float16frombits converts an IEEE-754 half-precision bit pattern to float32.
//
// Parameters:
//   - h: the half-precision bits
//
// Returns:
//   - float32: the widened value
func Float16frombits(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h >> 10 & 0x1F)
	mant := uint32(h & 0x3FF)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: normalize.
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		mant &= 0x3FF
		return math.Float32frombits(sign | (exp+1-15+127)<<23 | mant<<13)
	case 0x1F:
		return math.Float32frombits(sign | 0xFF<<23 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | mant<<13)
	}
}
