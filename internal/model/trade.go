package model

import "math/big"

// TradeIntent describes a trade about to execute against a pool.
type TradeIntent struct {
	// Period is the accounting period (block number) the trade executes in.
	Period uint32

	// Amount is the trade magnitude: input amount for exact-input trades,
	// output amount for exact-output trades. Always positive.
	Amount *big.Int

	// ExactInput selects whether Amount fixes the input or the output side.
	ExactInput bool

	// ZeroForOne is true when currency0 is sold for currency1.
	ZeroForOne bool
}

// TradeRecord is one line of a recorded trade stream consumed by the
// replay runner.
type TradeRecord struct {
	Period     uint32 `json:"period"`
	Amount     string `json:"amount"`
	ExactInput bool   `json:"exact_input"`
	ZeroForOne bool   `json:"zero_for_one"`
	Timestamp  uint64 `json:"timestamp,omitempty"`
}

// Intent converts the record into a TradeIntent.
func (r TradeRecord) Intent() (TradeIntent, bool) {
	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return TradeIntent{}, false
	}
	return TradeIntent{
		Period:     r.Period,
		Amount:     amount,
		ExactInput: r.ExactInput,
		ZeroForOne: r.ZeroForOne,
	}, true
}
