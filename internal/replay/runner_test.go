package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lvrfee/internal/engine"
	"lvrfee/internal/model"
	"lvrfee/internal/storage"
)

func writeTrades(t *testing.T, dir string, trades []model.TradeRecord) string {
	t.Helper()
	path := filepath.Join(dir, "trades.jsonl")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create input: %v", err)
	}
	defer file.Close()
	for _, trade := range trades {
		line, err := json.Marshal(trade)
		if err != nil {
			t.Fatalf("marshal trade: %v", err)
		}
		if _, err := fmt.Fprintf(file, "%s\n", line); err != nil {
			t.Fatalf("write trade: %v", err)
		}
	}
	return path
}

func readDecisions(t *testing.T, path string) []model.FeeDecision {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open decisions: %v", err)
	}
	defer file.Close()

	var out []model.FeeDecision
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var d model.FeeDecision
		if err := json.Unmarshal(scanner.Bytes(), &d); err != nil {
			t.Fatalf("decode decision: %v", err)
		}
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan decisions: %v", err)
	}
	return out
}

func testRunConfig(input string) RunConfig {
	liquidity := new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000))
	return RunConfig{
		InputPath: input,
		BatchSize: 2,
		PoolKey: model.PoolKey{
			Currency0:   common.HexToAddress("0x0000000000000000000000000000000000000001"),
			Currency1:   common.HexToAddress("0x0000000000000000000000000000000000000002"),
			FeeConfig:   model.DynamicFeeFlag,
			TickSpacing: 1,
		},
		InitialTick: 0,
		Liquidity:   liquidity,
		Balance0:    new(big.Int).Set(liquidity),
		Balance1:    new(big.Int).Set(liquidity),
	}
}

func TestRunnerReplaysTrades(t *testing.T) {
	dir := t.TempDir()
	amount := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000)).String()
	input := writeTrades(t, dir, []model.TradeRecord{
		{Period: 1, Amount: amount, ExactInput: true, ZeroForOne: true, Timestamp: 100},
		{Period: 1, Amount: amount, ExactInput: true, ZeroForOne: false, Timestamp: 101},
		{Period: 2, Amount: amount, ExactInput: true, ZeroForOne: true, Timestamp: 102},
	})
	outPath := filepath.Join(dir, "decisions.jsonl")

	runner := NewRunner(testRunConfig(input), engine.Config{
		Strategy:  engine.StrategyPeriodClose,
		MinFeePpm: 1000,
	}, storage.NewJsonlSink(outPath), nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	decisions := readDecisions(t, outPath)
	if len(decisions) != 3 {
		t.Fatalf("decisions = %d, want 3", len(decisions))
	}
	for i, d := range decisions {
		if d.Strategy != string(engine.StrategyPeriodClose) {
			t.Fatalf("decision %d strategy = %q", i, d.Strategy)
		}
		if d.ChargedFeePpm < 1000 {
			t.Fatalf("decision %d fee %d below floor", i, d.ChargedFeePpm)
		}
	}
	if decisions[0].Timestamp != 100 || decisions[2].Timestamp != 102 {
		t.Fatalf("timestamps not carried through: %+v", decisions)
	}

	// The two period-1 trades both pay the floor; the period-2 trade
	// closes period 1 and its fee still lags one period behind.
	if decisions[0].ChargedFeePpm != 1000 || decisions[1].ChargedFeePpm != 1000 || decisions[2].ChargedFeePpm != 1000 {
		t.Fatalf("charged fees = %+v, want floor for all three", decisions)
	}
	if decisions[2].PendingFeePpm < 1000 {
		t.Fatalf("pending fee after close = %d", decisions[2].PendingFeePpm)
	}
}

func TestRunnerSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trades.jsonl")
	amount := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000)).String()
	content := "not json\n" +
		`{"period":1,"amount":"` + amount + `","exact_input":true,"zero_for_one":true}` + "\n" +
		`{"period":1,"amount":"bogus","exact_input":true,"zero_for_one":true}` + "\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	outPath := filepath.Join(dir, "decisions.jsonl")

	runner := NewRunner(testRunConfig(input), engine.Config{
		Strategy:  engine.StrategyPerTrade,
		MinFeePpm: 1000,
	}, storage.NewJsonlSink(outPath), nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	decisions := readDecisions(t, outPath)
	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	if decisions[0].Strategy != string(engine.StrategyPerTrade) {
		t.Fatalf("strategy = %q", decisions[0].Strategy)
	}
}

func TestRunnerMissingInput(t *testing.T) {
	runner := NewRunner(testRunConfig("/nonexistent/trades.jsonl"), engine.Config{
		Strategy:  engine.StrategyPeriodClose,
		MinFeePpm: 1000,
	}, storage.NewJsonlSink(filepath.Join(t.TempDir(), "out.jsonl")), nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing input")
	}
}
