package engine

import (
	"github.com/holiman/uint256"

	"lvrfee/internal/model"
)

// periodCloseStrategy updates the fee once per period. Trades within a
// period all pay the fee computed at the previous period close, which
// removes any within-period fee oscillation an attacker could order
// around. The cost is a strict one-period lag between variance
// realization and fee application.
type periodCloseStrategy struct {
	cfg Config
}

func (s *periodCloseStrategy) kind() StrategyKind { return StrategyPeriodClose }

func (s *periodCloseStrategy) quote(st *model.PoolFeeState, _ quoteContext) (uint32, error) {
	return st.PendingFeePpm, nil
}

func (s *periodCloseStrategy) settle(st *model.PoolFeeState, pending pendingTrade, _ int32, finalized *uint256.Int) uint32 {
	if finalized == nil {
		// Period still open; the fee does not move mid-period.
		return st.PendingFeePpm
	}

	target := int64(s.cfg.MinFeePpm) + int64(periodSurchargePpm(finalized))
	if s.cfg.PeriodCarry {
		target += int64(st.CarryPpm)
	}
	fee := clampFee(target, s.cfg.MinFeePpm, s.cfg.MaxFeePpm)
	if s.cfg.PeriodCarry {
		// Whatever the clamp withheld is owed to (or by) future periods.
		st.CarryPpm = clampCarry(target - int64(fee))
	}
	st.PendingFeePpm = fee
	return fee
}
