package swap

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"lvrfee/internal/model"
)

var (
	ErrPoolNotFound = errors.New("pool not found")
	ErrPoolExists   = errors.New("pool already exists")
)

const feeDenominator = 1_000_000

type simPool struct {
	key          model.PoolKey
	sqrtPriceX96 *big.Int
	tick         int32
	liquidity    *big.Int
	balance0     *big.Int
	balance1     *big.Int

	// overrideFee holds a one-shot fee word set for the next swap.
	overrideFee    uint32
	overrideActive bool
}

// Simulator is an in-memory single-range constant-product execution
// engine. It implements Host and executes swaps without tick crossing,
// which is sufficient for driving the fee engine in tests and replay.
type Simulator struct {
	mu    sync.Mutex
	pools map[model.PoolID]*simPool
}

func NewSimulator() *Simulator {
	return &Simulator{pools: make(map[model.PoolID]*simPool)}
}

// CreatePool registers a pool at the given initial tick with fixed
// liquidity and reserve balances.
func (s *Simulator) CreatePool(key model.PoolKey, initialTick int32, liquidity, balance0, balance1 *big.Int) (model.PoolID, error) {
	sqrtPrice, err := SqrtPriceAtTick(initialTick)
	if err != nil {
		return model.PoolID{}, err
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return model.PoolID{}, ErrZeroLiquidity
	}

	id := key.ID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[id]; ok {
		return model.PoolID{}, ErrPoolExists
	}
	s.pools[id] = &simPool{
		key:          key,
		sqrtPriceX96: sqrtPrice,
		tick:         initialTick,
		liquidity:    new(big.Int).Set(liquidity),
		balance0:     new(big.Int).Set(balance0),
		balance1:     new(big.Int).Set(balance1),
	}
	return id, nil
}

func (s *Simulator) Slot0(id model.PoolID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return Snapshot{}, ErrPoolNotFound
	}
	fee := p.key.FeeConfig & model.FeeMask
	if p.overrideActive {
		fee = p.overrideFee & model.FeeMask
	}
	return Snapshot{
		Tick:         p.tick,
		SqrtPriceX96: new(big.Int).Set(p.sqrtPriceX96),
		FeePpm:       fee,
	}, nil
}

func (s *Simulator) Liquidity(id model.PoolID) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return new(big.Int).Set(p.liquidity), nil
}

func (s *Simulator) SideDepth(id model.PoolID, zeroForOne bool) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return nil, ErrPoolNotFound
	}
	if zeroForOne {
		return new(big.Int).Set(p.balance0), nil
	}
	return new(big.Int).Set(p.balance1), nil
}

func (s *Simulator) ProjectSqrtPrice(sqrtPriceX96, liquidity, amount *big.Int, exactInput, zeroForOne bool) (*big.Int, error) {
	if exactInput {
		return NextSqrtPriceFromInput(sqrtPriceX96, liquidity, amount, zeroForOne)
	}
	return NextSqrtPriceFromOutput(sqrtPriceX96, liquidity, amount, zeroForOne)
}

func (s *Simulator) SetOverrideFee(id model.PoolID, feeWord uint32) error {
	if feeWord&model.OverrideFeeFlag == 0 {
		return fmt.Errorf("fee word %#x missing override flag", feeWord)
	}
	if feeWord&model.FeeMask > feeDenominator {
		return fmt.Errorf("fee %d exceeds 100%%", feeWord&model.FeeMask)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	if !ok {
		return ErrPoolNotFound
	}
	if !p.key.IsDynamicFee() {
		return fmt.Errorf("pool fee config %#x is static", p.key.FeeConfig)
	}
	p.overrideFee = feeWord
	p.overrideActive = true
	return nil
}

// SwapResult reports an executed swap.
type SwapResult struct {
	TickAfter int32
	AmountIn  *big.Int
	AmountOut *big.Int
	FeePpm    uint32
}

// Swap executes a trade against the pool, honoring any pending override
// fee. The override is consumed whether or not the swap succeeds, which
// mirrors the per-trade scope of the override in the host protocol.
func (s *Simulator) Swap(id model.PoolID, intent model.TradeIntent) (SwapResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pools[id]
	if !ok {
		return SwapResult{}, ErrPoolNotFound
	}

	fee := p.key.FeeConfig & model.FeeMask
	if p.overrideActive {
		fee = p.overrideFee & model.FeeMask
		p.overrideActive = false
	}

	if intent.Amount == nil || intent.Amount.Sign() <= 0 {
		return SwapResult{}, fmt.Errorf("trade amount must be positive")
	}

	var (
		nextPrice *big.Int
		err       error
	)
	if intent.ExactInput {
		// Fee is taken from the input before it moves the price.
		effective := new(big.Int).Mul(intent.Amount, big.NewInt(feeDenominator-int64(fee)))
		effective.Div(effective, big.NewInt(feeDenominator))
		nextPrice, err = NextSqrtPriceFromInput(p.sqrtPriceX96, p.liquidity, effective, intent.ZeroForOne)
	} else {
		if fee >= feeDenominator {
			// A 100% input fee makes the required input unbounded.
			return SwapResult{}, ErrOutputExceedsPool
		}
		nextPrice, err = NextSqrtPriceFromOutput(p.sqrtPriceX96, p.liquidity, intent.Amount, intent.ZeroForOne)
	}
	if err != nil {
		return SwapResult{}, err
	}

	tickAfter, err := TickAtSqrtPrice(nextPrice)
	if err != nil {
		return SwapResult{}, err
	}

	var amountIn, amountOut *big.Int
	if intent.ZeroForOne {
		amountIn = Amount0Delta(p.sqrtPriceX96, nextPrice, p.liquidity, true)
		amountOut = Amount1Delta(p.sqrtPriceX96, nextPrice, p.liquidity, false)
	} else {
		amountIn = Amount1Delta(p.sqrtPriceX96, nextPrice, p.liquidity, true)
		amountOut = Amount0Delta(p.sqrtPriceX96, nextPrice, p.liquidity, false)
	}
	if intent.ExactInput {
		// The pool keeps the gross input; the fee portion sits in the
		// reserves without backing the price move.
		amountIn = new(big.Int).Set(intent.Amount)
	} else {
		// Gross the input up by the fee, rounding against the trader.
		amountIn.Mul(amountIn, big.NewInt(feeDenominator))
		amountIn = ceilDiv(amountIn, big.NewInt(feeDenominator-int64(fee)))
	}

	p.sqrtPriceX96 = nextPrice
	p.tick = tickAfter
	if intent.ZeroForOne {
		p.balance0.Add(p.balance0, amountIn)
		p.balance1.Sub(p.balance1, amountOut)
	} else {
		p.balance1.Add(p.balance1, amountIn)
		p.balance0.Sub(p.balance0, amountOut)
	}

	return SwapResult{
		TickAfter: tickAfter,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		FeePpm:    fee,
	}, nil
}
