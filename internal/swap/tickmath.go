package swap

import (
	"fmt"
	"math/big"
)

// Tick bounds for sqrt prices representable in Q64.96.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	// Q96 is the Q64.96 fixed-point one.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	// MinSqrtPriceX96 is the sqrt price at MinTick.
	MinSqrtPriceX96 = big.NewInt(4295128739)

	// MaxSqrtPriceX96 is the sqrt price at MaxTick.
	MaxSqrtPriceX96, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// sqrtRatioMagics[i] is sqrt(1.0001)^(-2^i) in Q128.
	sqrtRatioMagics = mustParseMagics([]string{
		"fffcb933bd6fad37aa2d162d1a594001",
		"fff97272373d413259a46990580e213a",
		"fff2e50f5f656932ef12357cf3c7fdcc",
		"ffe5caca7e10e4e61c3624eaa0941cd0",
		"ffcb9843d60f6159c9db58835c926644",
		"ff973b41fa98c081472e6896dfb254c0",
		"ff2ea16466c96a3843ec78b326b52861",
		"fe5dee046a99a2a811c461f1969c3053",
		"fcbe86c7900a88aedcffc83b479aa3a4",
		"f987a7253ac413176f2b074cf7815e54",
		"f3392b0822b70005940c7a398e4b70f3",
		"e7159475a2c29b7443b29c7fa6e889d9",
		"d097f3bdfd2022b8845ad8f792aa5825",
		"a9f746462d870fdf8a65dc1f90e061e5",
		"70d869a156d2a1b890bb3df62baf32f7",
		"31be135f97d08fd981231505542fcfa6",
		"9aa508b5b7a84e1c677de54f3e99bc9",
		"5d6af8dedb81196699c329225ee604",
		"2216e584f5fa1ea926041bedfe98",
		"48a170391f7dc42444e8fa2",
	})
)

func mustParseMagics(hexes []string) []*big.Int {
	out := make([]*big.Int, len(hexes))
	for i, h := range hexes {
		v, ok := new(big.Int).SetString(h, 16)
		if !ok {
			panic("invalid sqrt ratio constant: " + h)
		}
		out[i] = v
	}
	return out
}

// SqrtPriceAtTick returns sqrt(1.0001^tick) in Q64.96.
func SqrtPriceAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d out of range", tick)
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	// Product of the per-bit factors, in Q128.
	ratio := new(big.Int).Lsh(big.NewInt(1), 128)
	for i, magic := range sqrtRatioMagics {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, magic)
			ratio.Rsh(ratio, 128)
		}
	}

	// The factors encode negative exponents; invert for positive ticks.
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128 -> Q96, rounding up so TickAtSqrtPrice(SqrtPriceAtTick(t)) == t.
	rem := new(big.Int).And(ratio, big.NewInt((1<<32)-1))
	ratio.Rsh(ratio, 32)
	if rem.Sign() != 0 {
		ratio.Add(ratio, big.NewInt(1))
	}
	return ratio, nil
}

// TickAtSqrtPrice returns the largest tick whose sqrt price is <= the
// given value. Binary search against SqrtPriceAtTick keeps the pair of
// conversions exactly consistent.
func TickAtSqrtPrice(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtPriceX96) < 0 || sqrtPriceX96.Cmp(MaxSqrtPriceX96) > 0 {
		return 0, fmt.Errorf("sqrt price out of range")
	}

	low, high := MinTick, MaxTick
	for low < high {
		mid := low + (high-low+1)/2
		midPrice, err := SqrtPriceAtTick(mid)
		if err != nil {
			return 0, err
		}
		if midPrice.Cmp(sqrtPriceX96) <= 0 {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low, nil
}
