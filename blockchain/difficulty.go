// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/btxsuite/btx/chaincfg"
	"github.com/btxsuite/btx/chainhash"
)

var (
	bigOne  = big.NewInt(1)
	bigZero = big.NewInt(0)
)

// HashToBig converts a chainhash.Hash into a big.Int, interpreting the hash
// as a 256-bit little-endian unsigned integer, for use in work comparisons.
func HashToBig(hash *chainhash.Hash) *big.Int {
	buf := *hash
	for i := 0; i < len(buf)/2; i++ {
		buf[i], buf[len(buf)-1-i] = buf[len(buf)-1-i], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}

// CompactToBig converts the compact (unsigned 32-bit) representation of a
// whole number N to a big integer. The representation is similar to IEEE 754
// floating point numbers.
//
// Like IEEE 754 floating point, there are three basic components: the sign,
// the exponent, and the mantissa. They are broken out as follows:
//
//   - the most significant 8 bits represent the unsigned base 256 exponent
//   - bit 23 (the 24th bit) represents the sign bit
//   - the least significant 23 bits represent the mantissa
//
// The formula to calculate N is:
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
//
// This compact form is used to encode unsigned 256-bit numbers which
// represent proof-of-work targets.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := compact >> 24

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(uint(exponent)-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit number. The compact representation only provides 23
// bits of precision, so values larger than (2^23 - 1) only encode the most
// significant digits of the number. See CompactToBig for details.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var isNegative bool
	var mantissa uint32

	mag := new(big.Int).Abs(n)
	exponent := uint(len(mag.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(mag.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(mag)
		tn.Rsh(tn, 8*(exponent-3))
		mantissa = uint32(tn.Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	isNegative = n.Sign() < 0

	compact := uint32(exponent<<24) | mantissa
	if isNegative {
		compact |= 0x00800000
	}
	return compact
}

// CalcWork calculates a work value from the compact "bits" a header
// carries. A lower target equates to higher actual difficulty, so the
// accumulated work value is the inverse of the decoded target; 1 is added
// to the denominator to avoid a divide by zero and 2^256 multiplies the
// numerator to keep enough precision in integer division.
func CalcWork(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}

	denominator := new(big.Int).Add(target, bigOne)
	return new(big.Int).Div(oneLsh256, denominator)
}

var oneLsh256 = new(big.Int).Lsh(bigOne, 256)

// CheckProofOfWork verifies that id, interpreted as a 256-bit unsigned
// integer, is at or below the target decoded from bits, and that the
// decoded target itself does not exceed the configured pow_limit.
func CheckProofOfWork(id chainhash.Hash, bits uint32, powLimit *big.Int) error {
	target := CompactToBig(bits)

	if target.Sign() <= 0 {
		return ruleError(ErrPowInsufficient, "block target difficulty is too low")
	}
	if target.Cmp(powLimit) > 0 {
		return ruleError(ErrPowInsufficient, "block target difficulty exceeds pow_limit")
	}

	idNum := HashToBig(&id)
	if idNum.Cmp(target) > 0 {
		return ruleError(ErrPowInsufficient, "block id is higher than expected target")
	}
	return nil
}

// CalcNextBits implements the retarget rule: last_bits scaled by
// clamp(last_time - span_start_time, pow_time/4, pow_time*4) / pow_time,
// capped at pow_limit. Callers are responsible for only invoking this at a
// pow_span height boundary; off-boundary heights simply reuse the previous
// block's bits.
func CalcNextBits(lastBits uint32, lastTime, spanStartTime int64, params *chaincfg.Params) uint32 {
	span := lastTime - spanStartTime
	minSpan := params.MinRetargetTimespan()
	maxSpan := params.MaxRetargetTimespan()
	switch {
	case span < minSpan:
		span = minSpan
	case span > maxSpan:
		span = maxSpan
	}

	oldTarget := CompactToBig(lastBits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(span))
	newTarget.Div(newTarget, big.NewInt(params.PowTargetTimespan))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget.Set(params.PowLimit)
	}
	return BigToCompact(newTarget)
}
