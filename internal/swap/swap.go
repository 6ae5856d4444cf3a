// Package swap defines the interface the fee engine consumes from the
// trade-execution engine, the closed-form price math behind it, and an
// in-memory single-range implementation used by tests and replay.
package swap

import (
	"math/big"

	"lvrfee/internal/model"
)

// Snapshot is a read-only view of a pool's pricing state.
type Snapshot struct {
	Tick         int32
	SqrtPriceX96 *big.Int
	FeePpm       uint32
}

// Host is the surface the fee engine requires from the execution engine.
// All methods are synchronous; Slot0, Liquidity, SideDepth and
// ProjectSqrtPrice never mutate pool state.
type Host interface {
	// Slot0 returns the pool's current tick, sqrt price and fee.
	Slot0(id model.PoolID) (Snapshot, error)

	// Liquidity returns the pool's active liquidity.
	Liquidity(id model.PoolID) (*big.Int, error)

	// SideDepth returns the pool's reserve balance on the side being
	// sold into (token0 when zeroForOne, token1 otherwise).
	SideDepth(id model.PoolID, zeroForOne bool) (*big.Int, error)

	// ProjectSqrtPrice computes the post-trade sqrt price for a trade of
	// the given magnitude without executing it.
	ProjectSqrtPrice(sqrtPriceX96, liquidity, amount *big.Int, exactInput, zeroForOne bool) (*big.Int, error)

	// SetOverrideFee instructs the execution engine to use the given fee
	// word for the trade currently being processed. The word must carry
	// model.OverrideFeeFlag.
	SetOverrideFee(id model.PoolID, feeWord uint32) error
}
