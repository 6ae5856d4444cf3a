package engine

import (
	"github.com/holiman/uint256"

	"lvrfee/internal/model"
)

// observeVariance folds one trade's tick displacement into the pool's
// running variance sum. When the observation belongs to a later period
// than the one stored, the previous period's sum is returned as
// finalized and the accumulator reseeds with this trade's own squared
// delta; otherwise the sum only grows and nil is returned.
//
// Observations reporting a period older than the stored one belong to
// the current period for accumulation purposes: the period id never
// rewinds.
func observeVariance(st *model.PoolFeeState, period uint32, tickBefore, tickAfter int32) *uint256.Int {
	delta := int64(tickAfter) - int64(tickBefore)
	// Ticks stay within the usable range, so |delta| < 2^21 and the
	// square fits in 64 bits before widening.
	deltaSquared := uint64(delta * delta)

	if period <= st.PeriodID {
		st.SumSquaredDeltas.AddUint64(st.SumSquaredDeltas, deltaSquared)
		return nil
	}

	finalized := new(uint256.Int).Set(st.SumSquaredDeltas)
	st.SumSquaredDeltas = uint256.NewInt(deltaSquared)
	st.PeriodID = period
	return finalized
}
