// Package replay drives the fee engine with a recorded trade stream,
// executing each trade against the in-memory swap simulator and
// persisting the resulting fee decisions for offline analysis.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"go.uber.org/zap"

	"lvrfee/internal/engine"
	"lvrfee/internal/model"
	"lvrfee/internal/storage"
	"lvrfee/internal/swap"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	InputPath string
	BatchSize int

	// Initial pool state for the simulator.
	PoolKey     model.PoolKey
	InitialTick int32
	Liquidity   *big.Int
	Balance0    *big.Int
	Balance1    *big.Int
}

// Runner replays trades through the engine and writes decisions to a sink.
type Runner struct {
	cfg       RunConfig
	engineCfg engine.Config
	sink      storage.Sink
	logger    *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, engineCfg engine.Config, sink storage.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:       cfg,
		engineCfg: engineCfg,
		sink:      sink,
		logger:    logger,
	}
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 1000
	}
	if r.cfg.Liquidity == nil || r.cfg.Liquidity.Sign() <= 0 {
		return fmt.Errorf("liquidity must be positive")
	}

	sim := swap.NewSimulator()
	poolID, err := sim.CreatePool(r.cfg.PoolKey, r.cfg.InitialTick, r.cfg.Liquidity, r.cfg.Balance0, r.cfg.Balance1)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	batch := make([]model.FeeDecision, 0, r.cfg.BatchSize)
	var currentTS uint64
	observer := func(d model.FeeDecision) {
		d.Timestamp = currentTS
		batch = append(batch, d)
	}

	eng, err := engine.New(r.engineCfg, sim, observer, r.logger)
	if err != nil {
		return err
	}
	if _, err := eng.OnPoolInit(r.cfg.PoolKey); err != nil {
		return fmt.Errorf("init pool: %w", err)
	}

	file, err := os.Open(r.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var total, replayed, failed int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TradeRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			r.logger.Warn("decode trade", zap.Error(err), zap.Int("line", total))
			continue
		}
		intent, ok := record.Intent()
		if !ok {
			failed++
			r.logger.Warn("invalid trade amount", zap.String("amount", record.Amount), zap.Int("line", total))
			continue
		}
		currentTS = record.Timestamp

		if err := r.replayTrade(eng, sim, poolID, intent); err != nil {
			return fmt.Errorf("trade %d: %w", total, err)
		}
		replayed++

		if len(batch) >= r.cfg.BatchSize {
			if err := r.sink.PutDecisionBatch(batch); err != nil {
				return fmt.Errorf("flush decisions: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	if len(batch) > 0 {
		if err := r.sink.PutDecisionBatch(batch); err != nil {
			return fmt.Errorf("flush decisions: %w", err)
		}
	}

	pending, err := eng.PeekPendingFee(poolID)
	if err != nil {
		return err
	}
	r.logger.Info("replay complete",
		zap.Int("total", total),
		zap.Int("replayed", replayed),
		zap.Int("failed", failed),
		zap.Uint32("final_pending_fee_ppm", pending),
	)
	return nil
}

func (r *Runner) replayTrade(eng *engine.Engine, sim *swap.Simulator, poolID model.PoolID, intent model.TradeIntent) error {
	if _, err := eng.OnBeforeTrade(poolID, intent); err != nil {
		return fmt.Errorf("before trade: %w", err)
	}
	result, err := sim.Swap(poolID, intent)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	if err := eng.OnAfterTrade(poolID, result.TickAfter); err != nil {
		return fmt.Errorf("after trade: %w", err)
	}
	return nil
}
