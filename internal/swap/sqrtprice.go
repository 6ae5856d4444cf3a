package swap

import (
	"errors"
	"math/big"
)

var (
	ErrZeroLiquidity     = errors.New("pool has no active liquidity")
	ErrPriceOutOfBounds  = errors.New("resulting price out of bounds")
	ErrOutputExceedsPool = errors.New("requested output exceeds available reserves")
)

func ceilDiv(x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// NextSqrtPriceFromInput computes the sqrt price after swapping in the
// given input amount against a single liquidity range, without mutating
// any state. Rounding follows the v3 convention: never in favor of the
// trader.
func NextSqrtPriceFromInput(sqrtPriceX96, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, ErrZeroLiquidity
	}
	if amountIn == nil || amountIn.Sign() == 0 {
		return new(big.Int).Set(sqrtPriceX96), nil
	}

	if zeroForOne {
		// price moves down: sqrtP' = L*Q96*sqrtP / (L*Q96 + amount*sqrtP), rounded up
		lq := new(big.Int).Mul(liquidity, Q96)
		numerator := new(big.Int).Mul(lq, sqrtPriceX96)
		denominator := new(big.Int).Add(lq, new(big.Int).Mul(amountIn, sqrtPriceX96))
		next := ceilDiv(numerator, denominator)
		if next.Cmp(MinSqrtPriceX96) < 0 {
			return nil, ErrPriceOutOfBounds
		}
		return next, nil
	}

	// price moves up: sqrtP' = sqrtP + amount*Q96/L, rounded down
	quotient := new(big.Int).Mul(amountIn, Q96)
	quotient.Div(quotient, liquidity)
	next := new(big.Int).Add(sqrtPriceX96, quotient)
	if next.Cmp(MaxSqrtPriceX96) > 0 {
		return nil, ErrPriceOutOfBounds
	}
	return next, nil
}

// NextSqrtPriceFromOutput computes the sqrt price after swapping out the
// given output amount against a single liquidity range.
func NextSqrtPriceFromOutput(sqrtPriceX96, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, ErrZeroLiquidity
	}
	if amountOut == nil || amountOut.Sign() == 0 {
		return new(big.Int).Set(sqrtPriceX96), nil
	}

	if zeroForOne {
		// token1 out, price moves down: sqrtP' = sqrtP - ceil(amount*Q96/L)
		quotient := ceilDiv(new(big.Int).Mul(amountOut, Q96), liquidity)
		next := new(big.Int).Sub(sqrtPriceX96, quotient)
		if next.Cmp(MinSqrtPriceX96) < 0 {
			return nil, ErrOutputExceedsPool
		}
		return next, nil
	}

	// token0 out, price moves up: sqrtP' = L*Q96*sqrtP / (L*Q96 - amount*sqrtP), rounded up
	lq := new(big.Int).Mul(liquidity, Q96)
	product := new(big.Int).Mul(amountOut, sqrtPriceX96)
	denominator := new(big.Int).Sub(lq, product)
	if denominator.Sign() <= 0 {
		return nil, ErrOutputExceedsPool
	}
	next := ceilDiv(new(big.Int).Mul(lq, sqrtPriceX96), denominator)
	if next.Cmp(MaxSqrtPriceX96) > 0 {
		return nil, ErrPriceOutOfBounds
	}
	return next, nil
}

// Amount0Delta returns the token0 amount between two sqrt prices for the
// given liquidity.
func Amount0Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	lower, upper := sqrtA, sqrtB
	if lower.Cmp(upper) > 0 {
		lower, upper = upper, lower
	}
	// L*Q96*(upper-lower) / (upper*lower)
	numerator := new(big.Int).Mul(liquidity, Q96)
	numerator.Mul(numerator, new(big.Int).Sub(upper, lower))
	denominator := new(big.Int).Mul(upper, lower)
	if roundUp {
		return ceilDiv(numerator, denominator)
	}
	return numerator.Div(numerator, denominator)
}

// Amount1Delta returns the token1 amount between two sqrt prices for the
// given liquidity.
func Amount1Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	lower, upper := sqrtA, sqrtB
	if lower.Cmp(upper) > 0 {
		lower, upper = upper, lower
	}
	numerator := new(big.Int).Mul(liquidity, new(big.Int).Sub(upper, lower))
	if roundUp {
		return ceilDiv(numerator, Q96)
	}
	return numerator.Div(numerator, Q96)
}
