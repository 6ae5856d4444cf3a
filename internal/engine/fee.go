package engine

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Fee bounds and calibration constants. Fees are expressed in parts per
// million. The variance-to-fee conversion charges a fixed share of the
// theoretical LVR cost sigma^2/8: one squared tick of log-price variance
// is worth ln(1.0001)^2/8 of pool value per period, which is 1/800 ppm
// to within 0.005%.
const (
	MaxFeePpm uint32 = 1_000_000

	// surchargePct is the share of the theoretical LVR cost charged by
	// the period-close strategy.
	surchargePct = 95

	// ppmPerSquaredTickDen converts squared ticks to fee ppm: one ppm
	// per 800 squared ticks.
	ppmPerSquaredTickDen = 800

	// carryLimitPpm bounds the signed prediction-error residual so that
	// folding it into a fee sum cannot overflow the fee field.
	carryLimitPpm = int64(MaxFeePpm)

	// sizeRatioScale divides the size ratio (in ppm of pool depth)
	// before squaring into basis points. Trades below 1% of depth pay
	// no size surcharge by construction of the integer floor.
	sizeRatioScale = 10_000
)

var ppmScale = big.NewInt(1_000_000)

// clampFee bounds a signed fee sum to [min, max]. A non-positive sum
// clamps to the floor, never to zero.
func clampFee(fee int64, min, max uint32) uint32 {
	if fee < int64(min) {
		return min
	}
	if fee > int64(max) {
		return max
	}
	return uint32(fee)
}

// clampCarry bounds the prediction-error residual to a safe signed range.
func clampCarry(carry int64) int32 {
	if carry > carryLimitPpm {
		return int32(carryLimitPpm)
	}
	if carry < -carryLimitPpm {
		return int32(-carryLimitPpm)
	}
	return int32(carry)
}

// periodSurchargePpm converts a finalized period variance into the fee
// surcharge above the floor: sumSq * 95 / (800 * 100), saturating at
// MaxFeePpm.
func periodSurchargePpm(sumSq *uint256.Int) uint64 {
	scaled, overflow := new(uint256.Int).MulOverflow(sumSq, uint256.NewInt(surchargePct))
	if overflow {
		return uint64(MaxFeePpm)
	}
	scaled.Div(scaled, uint256.NewInt(ppmPerSquaredTickDen*100))
	if !scaled.IsUint64() || scaled.Uint64() > uint64(MaxFeePpm) {
		return uint64(MaxFeePpm)
	}
	return scaled.Uint64()
}

// tradeSurchargePpm converts a single trade's tick displacement into the
// fee surcharge above the base fee: ceil(delta^2 / 800). The ceiling
// rounds in the protocol's favor. delta is at most twice the tick range,
// so the square fits comfortably in 64 bits.
func tradeSurchargePpm(delta int64) int64 {
	d2 := delta * delta
	return (d2 + ppmPerSquaredTickDen - 1) / ppmPerSquaredTickDen
}

// sizeSurchargePpm taxes trade size relative to the sold-side depth:
// ratio = amount * 1e6 / depth, surcharge = (ratio/10000)^2 basis points.
func sizeSurchargePpm(amount, depth *big.Int) int64 {
	if amount == nil || amount.Sign() <= 0 {
		return 0
	}
	if depth == nil || depth.Sign() <= 0 {
		// An empty side means any trade consumes the whole depth.
		return int64(MaxFeePpm)
	}
	ratio := new(big.Int).Mul(amount, ppmScale)
	ratio.Div(ratio, depth)
	if !ratio.IsInt64() || ratio.Int64() >= int64(MaxFeePpm) {
		return int64(MaxFeePpm)
	}
	r := ratio.Int64() / sizeRatioScale
	return r * r * 100
}
