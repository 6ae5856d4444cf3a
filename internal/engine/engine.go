// Package engine implements the dynamic LVR fee state machine: it
// observes each trade's tick displacement, accumulates realized variance
// per accounting period, and sets a per-trade or per-period override fee
// that tracks the adverse-selection cost imposed on liquidity providers.
package engine

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"lvrfee/internal/model"
	"lvrfee/internal/swap"
)

// Config holds the fee-engine calibration. Zero values are filled in by
// New: MaxFeePpm defaults to 100%, BaseFeePpm to MinFeePpm.
type Config struct {
	Strategy StrategyKind

	// MinFeePpm is the protocol fee floor.
	MinFeePpm uint32

	// BaseFeePpm is the per-trade strategy's base fee (the fee of a
	// zero-impact trade).
	BaseFeePpm uint32

	// MaxFeePpm is the protocol fee ceiling, at most 1e6.
	MaxFeePpm uint32

	// PeriodCarry reconciles the period-close strategy's clamp residual
	// into later periods.
	PeriodCarry bool

	// SizeSurcharge adds the trade-size surcharge on top of the
	// variance-based fee (per-trade strategy only).
	SizeSurcharge bool

	// DepthFromLiquidity derives the surcharge depth from active
	// liquidity instead of the raw side balance, which is manipulable by
	// same-trade donations.
	DepthFromLiquidity bool
}

// DefaultConfig returns the calibration used in production replays.
func DefaultConfig() Config {
	return Config{
		Strategy:   StrategyPeriodClose,
		MinFeePpm:  1000,
		BaseFeePpm: 1000,
		MaxFeePpm:  MaxFeePpm,
	}
}

func (c Config) normalized() (Config, error) {
	if c.MaxFeePpm == 0 || c.MaxFeePpm > MaxFeePpm {
		c.MaxFeePpm = MaxFeePpm
	}
	if c.BaseFeePpm == 0 {
		c.BaseFeePpm = c.MinFeePpm
	}
	if c.MinFeePpm > c.MaxFeePpm {
		return c, fmt.Errorf("min fee %d exceeds max fee %d", c.MinFeePpm, c.MaxFeePpm)
	}
	if c.BaseFeePpm > c.MaxFeePpm {
		return c, fmt.Errorf("base fee %d exceeds max fee %d", c.BaseFeePpm, c.MaxFeePpm)
	}
	if c.Strategy == "" {
		c.Strategy = StrategyPeriodClose
	}
	return c, nil
}

// DecisionObserver receives one record per reconciled trade. It runs
// synchronously on the trade path and must be cheap.
type DecisionObserver func(model.FeeDecision)

// pendingTrade is the staged pre-trade decision awaiting reconciliation.
type pendingTrade struct {
	period        uint32
	tickBefore    int32
	chargedFeePpm uint32
}

type poolState struct {
	key      model.PoolKey
	st       model.PoolFeeState
	strategy feeStrategy
	pending  *pendingTrade
}

// Engine owns the per-pool fee state table. The host execution engine
// guarantees trades against one pool are strictly ordered and that the
// before/after hooks of one trade are never interleaved with another
// trade on the same pool; the engine relies on that ordering and only
// locks the table itself. Distinct pools share no state.
type Engine struct {
	cfg      Config
	host     swap.Host
	logger   *zap.Logger
	observer DecisionObserver

	mu    sync.RWMutex
	pools map[model.PoolID]*poolState
}

// New builds an Engine. observer may be nil.
func New(cfg Config, host swap.Host, observer DecisionObserver, logger *zap.Logger) (*Engine, error) {
	if host == nil {
		return nil, fmt.Errorf("host is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      normalized,
		host:     host,
		logger:   logger,
		observer: observer,
		pools:    make(map[model.PoolID]*poolState),
	}, nil
}

// OnPoolInit registers a pool with the fee engine. Pools whose fee
// configuration does not carry the dynamic-fee capability are rejected
// before any state is created.
func (e *Engine) OnPoolInit(key model.PoolKey) (model.PoolID, error) {
	if !key.IsDynamicFee() {
		return model.PoolID{}, fmt.Errorf("fee config %#x: %w", key.FeeConfig, ErrStaticFeeConfig)
	}

	strategy, err := newStrategy(e.cfg)
	if err != nil {
		return model.PoolID{}, err
	}

	id := key.ID()
	snap, err := e.host.Slot0(id)
	if err != nil {
		return model.PoolID{}, fmt.Errorf("read pool snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pools[id]; ok {
		return model.PoolID{}, ErrPoolExists
	}
	e.pools[id] = &poolState{
		key: key,
		st: model.PoolFeeState{
			LastTick:         snap.Tick,
			SumSquaredDeltas: uint256.NewInt(0),
			PendingFeePpm:    e.cfg.MinFeePpm,
		},
		strategy: strategy,
	}

	e.logger.Info("pool registered",
		zap.String("pool", id.Hex()),
		zap.String("strategy", string(strategy.kind())),
		zap.Int32("tick", snap.Tick),
		zap.Uint32("min_fee_ppm", e.cfg.MinFeePpm),
	)
	return id, nil
}

// OnBeforeTrade prices the trade about to execute and pushes the fee to
// the execution engine as a per-trade override. It must be called
// exactly once per trade, before execution; durable state is not
// mutated until the matching OnAfterTrade.
func (e *Engine) OnBeforeTrade(id model.PoolID, intent model.TradeIntent) (uint32, error) {
	ps, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	if ps.pending != nil {
		return 0, ErrTradeInFlight
	}

	snap, err := e.host.Slot0(id)
	if err != nil {
		return 0, fmt.Errorf("read pool snapshot: %w", err)
	}

	ctx := quoteContext{
		intent: intent,
		snap:   snap,
		projectTick: func() (int32, error) {
			return e.projectTick(id, snap, intent)
		},
		depth: func() (*big.Int, error) {
			return e.sideDepth(id, snap, intent.ZeroForOne)
		},
	}

	fee, err := ps.strategy.quote(&ps.st, ctx)
	if err != nil {
		return 0, err
	}

	if err := e.host.SetOverrideFee(id, fee|model.OverrideFeeFlag); err != nil {
		return 0, fmt.Errorf("set override fee: %w", err)
	}

	ps.pending = &pendingTrade{
		period:        intent.Period,
		tickBefore:    snap.Tick,
		chargedFeePpm: fee,
	}
	return fee, nil
}

// OnAfterTrade reconciles the last quoted trade against its authoritative
// post-trade tick. It must be called exactly once per trade, after
// execution. All durable state mutation for the trade happens here.
func (e *Engine) OnAfterTrade(id model.PoolID, tickAfter int32) error {
	ps, err := e.lookup(id)
	if err != nil {
		return err
	}
	if ps.pending == nil {
		return ErrNoTradeInFlight
	}
	pending := *ps.pending

	finalized := observeVariance(&ps.st, pending.period, pending.tickBefore, tickAfter)
	realized := ps.strategy.settle(&ps.st, pending, tickAfter, finalized)
	ps.st.LastTick = tickAfter
	ps.pending = nil

	e.logger.Debug("trade reconciled",
		zap.String("pool", id.Hex()),
		zap.Uint32("period", pending.period),
		zap.Int32("tick_before", pending.tickBefore),
		zap.Int32("tick_after", tickAfter),
		zap.Uint32("charged_fee_ppm", pending.chargedFeePpm),
		zap.Uint32("realized_fee_ppm", realized),
		zap.Int32("carry_ppm", ps.st.CarryPpm),
		zap.Bool("period_closed", finalized != nil),
	)

	if e.observer != nil {
		e.observer(model.FeeDecision{
			PoolID:         id.Hex(),
			Strategy:       string(ps.strategy.kind()),
			Period:         pending.period,
			TickBefore:     pending.tickBefore,
			TickAfter:      tickAfter,
			ChargedFeePpm:  pending.chargedFeePpm,
			RealizedFeePpm: realized,
			CarryPpm:       ps.st.CarryPpm,
			PendingFeePpm:  ps.st.PendingFeePpm,
			SumSq:          ps.st.SumSquaredDeltas.Dec(),
		})
	}
	return nil
}

// PeekPendingFee returns the fee the next trade would be charged under
// the period-close strategy, or the last charged fee under the per-trade
// strategy.
func (e *Engine) PeekPendingFee(id model.PoolID) (uint32, error) {
	ps, err := e.lookup(id)
	if err != nil {
		return 0, err
	}
	return ps.st.PendingFeePpm, nil
}

// PeekAccumulatorState returns a copy of the pool's accumulator state.
func (e *Engine) PeekAccumulatorState(id model.PoolID) (model.AccumulatorSnapshot, error) {
	ps, err := e.lookup(id)
	if err != nil {
		return model.AccumulatorSnapshot{}, err
	}
	return model.AccumulatorSnapshot{
		SumSquaredDeltas: new(uint256.Int).Set(ps.st.SumSquaredDeltas),
		PeriodID:         ps.st.PeriodID,
		CarryPpm:         ps.st.CarryPpm,
	}, nil
}

func (e *Engine) lookup(id model.PoolID) (*poolState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ps, ok := e.pools[id]
	if !ok {
		return nil, ErrPoolNotInitialized
	}
	return ps, nil
}

// projectTick runs the host's closed-form price-impact estimate for the
// trade and converts the projected sqrt price back to a tick.
func (e *Engine) projectTick(id model.PoolID, snap swap.Snapshot, intent model.TradeIntent) (int32, error) {
	liquidity, err := e.host.Liquidity(id)
	if err != nil {
		return 0, err
	}
	projected, err := e.host.ProjectSqrtPrice(snap.SqrtPriceX96, liquidity, intent.Amount, intent.ExactInput, intent.ZeroForOne)
	if err != nil {
		return 0, err
	}
	return swap.TickAtSqrtPrice(projected)
}

// sideDepth returns the depth backing the size surcharge: the raw
// balance of the sold side, or its liquidity-derived equivalent when
// configured to resist balance manipulation.
func (e *Engine) sideDepth(id model.PoolID, snap swap.Snapshot, zeroForOne bool) (*big.Int, error) {
	if !e.cfg.DepthFromLiquidity {
		return e.host.SideDepth(id, zeroForOne)
	}
	liquidity, err := e.host.Liquidity(id)
	if err != nil {
		return nil, err
	}
	if zeroForOne {
		// token0 depth = L * Q96 / sqrtP
		depth := new(big.Int).Mul(liquidity, swap.Q96)
		return depth.Div(depth, snap.SqrtPriceX96), nil
	}
	// token1 depth = L * sqrtP / Q96
	depth := new(big.Int).Mul(liquidity, snap.SqrtPriceX96)
	return depth.Div(depth, swap.Q96), nil
}
