package model

import "github.com/holiman/uint256"

// PoolFeeState is the persistent fee-engine state for one pool. One
// record exists per initialized pool; it is mutated only by trades
// against that pool.
type PoolFeeState struct {
	// LastTick is the tick observed at the end of the last processed trade.
	LastTick int32

	// PeriodID identifies the current accounting period. It maps to an
	// external monotonic clock (typically a block number) and never rewinds.
	PeriodID uint32

	// SumSquaredDeltas accumulates squared tick deltas within the current
	// period. Reset to the closing trade's own delta-squared at period
	// boundaries.
	SumSquaredDeltas *uint256.Int

	// PendingFeePpm is the fee, in parts per million, to charge the next
	// trade. Always within the configured [min, max] bounds.
	PendingFeePpm uint32

	// CarryPpm is the signed residual folded into the next fee decision:
	// the prediction error under the per-trade strategy, the clamp
	// remainder under the period-close strategy when carry is enabled.
	CarryPpm int32
}

// AccumulatorSnapshot is a read-only view of a pool's accumulator state.
type AccumulatorSnapshot struct {
	SumSquaredDeltas *uint256.Int `json:"sum_squared_deltas"`
	PeriodID         uint32       `json:"period_id"`
	CarryPpm         int32        `json:"carry_ppm"`
}
