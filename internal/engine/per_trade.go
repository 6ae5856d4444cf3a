package engine

import (
	"fmt"

	"github.com/holiman/uint256"

	"lvrfee/internal/model"
)

// perTradeStrategy prices each trade from the tick displacement it is
// projected to cause, so large trades pay proportionally more. The
// signed difference between the realized and the charged fee is carried
// into the next quote; over a trade sequence the charged total converges
// to the realized cost (the carry telescopes).
type perTradeStrategy struct {
	cfg Config
}

func (s *perTradeStrategy) kind() StrategyKind { return StrategyPerTrade }

func (s *perTradeStrategy) quote(st *model.PoolFeeState, ctx quoteContext) (uint32, error) {
	projected, err := ctx.projectTick()
	if err != nil {
		return 0, fmt.Errorf("project post-trade tick: %w", err)
	}

	delta := int64(projected) - int64(ctx.snap.Tick)
	target := int64(s.cfg.BaseFeePpm) + tradeSurchargePpm(delta) + int64(st.CarryPpm)

	if s.cfg.SizeSurcharge {
		depth, err := ctx.depth()
		if err != nil {
			return 0, fmt.Errorf("read side depth: %w", err)
		}
		target += sizeSurchargePpm(ctx.intent.Amount, depth)
	}

	return clampFee(target, s.cfg.BaseFeePpm, s.cfg.MaxFeePpm), nil
}

func (s *perTradeStrategy) settle(st *model.PoolFeeState, pending pendingTrade, tickAfter int32, _ *uint256.Int) uint32 {
	delta := int64(tickAfter) - int64(pending.tickBefore)
	realized := int64(s.cfg.BaseFeePpm) + tradeSurchargePpm(delta)

	// carry' = carry + realized - charged; summed over trades the
	// charged total tracks the realized total.
	st.CarryPpm = clampCarry(int64(st.CarryPpm) + realized - int64(pending.chargedFeePpm))
	st.PendingFeePpm = pending.chargedFeePpm

	if realized > int64(MaxFeePpm) {
		return MaxFeePpm
	}
	return uint32(realized)
}
