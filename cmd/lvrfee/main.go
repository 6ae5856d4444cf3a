package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lvrfee/internal/config"
	"lvrfee/internal/engine"
	"lvrfee/internal/model"
	"lvrfee/internal/replay"
	"lvrfee/internal/storage"
	"lvrfee/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "lvrfee",
		Short:        "Dynamic LVR fee engine tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded trade stream through the fee engine",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input trades JSONL")
	replayCmd.Flags().String("out", "./data/fee_decisions.jsonl", "output decisions JSONL")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN (used instead of JSONL output when set)")
	replayCmd.Flags().Int("batch-size", 1000, "batch size for sink writes")
	replayCmd.Flags().String("strategy", "period-close", "fee strategy (period-close, per-trade)")
	replayCmd.Flags().Uint32("min-fee", 1000, "fee floor in ppm")
	replayCmd.Flags().Uint32("base-fee", 0, "per-trade base fee in ppm (defaults to min-fee)")
	replayCmd.Flags().Uint32("max-fee", 1_000_000, "fee ceiling in ppm")
	replayCmd.Flags().Bool("period-carry", false, "carry clamp residuals across periods")
	replayCmd.Flags().Bool("size-surcharge", false, "add the trade-size surcharge (per-trade strategy)")
	replayCmd.Flags().Bool("depth-from-liquidity", false, "derive surcharge depth from liquidity instead of balances")
	replayCmd.Flags().Int32("initial-tick", 0, "initial pool tick")
	replayCmd.Flags().String("liquidity", "1000000000000000000", "pool liquidity")
	replayCmd.Flags().String("balance0", "0", "initial token0 reserve")
	replayCmd.Flags().String("balance1", "0", "initial token1 reserve")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	strategy, err := engine.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	engineCfg := engine.Config{
		Strategy:           strategy,
		MinFeePpm:          cfg.MinFeePpm,
		BaseFeePpm:         cfg.BaseFeePpm,
		MaxFeePpm:          cfg.MaxFeePpm,
		PeriodCarry:        cfg.PeriodCarry,
		SizeSurcharge:      cfg.SizeSurcharge,
		DepthFromLiquidity: cfg.DepthFromLiquidity,
	}

	liquidity, err := parseBig(cfg.Liquidity, "liquidity")
	if err != nil {
		return err
	}
	balance0, err := parseBig(cfg.Balance0, "balance0")
	if err != nil {
		return err
	}
	balance1, err := parseBig(cfg.Balance1, "balance1")
	if err != nil {
		return err
	}

	runCfg := replay.RunConfig{
		InputPath: cfg.Input,
		BatchSize: cfg.BatchSize,
		PoolKey: model.PoolKey{
			Currency0:   common.HexToAddress("0x0000000000000000000000000000000000000001"),
			Currency1:   common.HexToAddress("0x0000000000000000000000000000000000000002"),
			FeeConfig:   model.DynamicFeeFlag,
			TickSpacing: 1,
		},
		InitialTick: cfg.InitialTick,
		Liquidity:   liquidity,
		Balance0:    balance0,
		Balance1:    balance1,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink storage.Sink
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sink = pgSink{ctx: ctx, store: store}
	} else {
		sink = storage.NewJsonlSink(cfg.Out)
	}

	runner := replay.NewRunner(runCfg, engineCfg, sink, logger)

	logger.Info("replay start",
		zap.String("in", cfg.Input),
		zap.String("strategy", cfg.Strategy),
		zap.Uint32("min_fee_ppm", cfg.MinFeePpm),
		zap.Uint32("max_fee_ppm", cfg.MaxFeePpm),
		zap.Int32("initial_tick", cfg.InitialTick),
		zap.Bool("pg", cfg.PGDSN != ""),
	)

	return runner.Run(ctx)
}

// pgSink adapts the Postgres store to the batch sink interface.
type pgSink struct {
	ctx   context.Context
	store *postgres.Store
}

func (p pgSink) PutDecisionBatch(decisions []model.FeeDecision) error {
	return p.store.InsertDecisions(p.ctx, decisions)
}

func parseBig(value, name string) (*big.Int, error) {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", name, value)
	}
	return parsed, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
