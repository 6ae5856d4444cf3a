package engine

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"lvrfee/internal/model"
	"lvrfee/internal/swap"
)

// StrategyKind selects how fees are decided for a pool.
type StrategyKind string

const (
	// StrategyPeriodClose defers fee updates to period boundaries: the
	// fee charged in period P+1 reflects the variance realized in P.
	StrategyPeriodClose StrategyKind = "period-close"

	// StrategyPerTrade prices each trade from its projected impact and
	// carries the prediction error into the next decision.
	StrategyPerTrade StrategyKind = "per-trade"
)

// ParseStrategy maps a config string to a StrategyKind.
func ParseStrategy(s string) (StrategyKind, error) {
	switch StrategyKind(s) {
	case StrategyPeriodClose, StrategyPerTrade:
		return StrategyKind(s), nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

// quoteContext carries everything a strategy may need to price the trade
// about to execute. projectTick and depth are lazy so the period-close
// strategy never pays for host calls it does not use.
type quoteContext struct {
	intent model.TradeIntent
	snap   swap.Snapshot

	projectTick func() (int32, error)
	depth       func() (*big.Int, error)
}

// feeStrategy is one fee-decision policy. quote prices the trade about
// to execute; settle folds the authoritative post-trade tick back into
// state. finalized is non-nil when this trade closed a period.
type feeStrategy interface {
	kind() StrategyKind
	quote(st *model.PoolFeeState, ctx quoteContext) (uint32, error)
	settle(st *model.PoolFeeState, pending pendingTrade, tickAfter int32, finalized *uint256.Int) uint32
}

func newStrategy(cfg Config) (feeStrategy, error) {
	switch cfg.Strategy {
	case StrategyPeriodClose:
		return &periodCloseStrategy{cfg: cfg}, nil
	case StrategyPerTrade:
		return &perTradeStrategy{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}
