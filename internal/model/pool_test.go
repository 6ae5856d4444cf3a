package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPoolKeyID(t *testing.T) {
	key := PoolKey{
		Currency0:   common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Currency1:   common.HexToAddress("0x0000000000000000000000000000000000000002"),
		FeeConfig:   DynamicFeeFlag,
		TickSpacing: 60,
	}

	if key.ID() != key.ID() {
		t.Fatalf("pool id must be deterministic")
	}

	other := key
	other.TickSpacing = 10
	if key.ID() == other.ID() {
		t.Fatalf("distinct keys must produce distinct ids")
	}
}

func TestFeeConfigFlags(t *testing.T) {
	key := PoolKey{FeeConfig: DynamicFeeFlag | 500}
	if !key.IsDynamicFee() {
		t.Fatalf("dynamic flag not detected")
	}
	if got := key.StaticFeePpm(); got != 500 {
		t.Fatalf("static fee = %d, want 500", got)
	}

	static := PoolKey{FeeConfig: 3000}
	if static.IsDynamicFee() {
		t.Fatalf("static config must not report dynamic")
	}
	if got := static.StaticFeePpm(); got != 3000 {
		t.Fatalf("static fee = %d, want 3000", got)
	}
}

func TestTradeRecordIntent(t *testing.T) {
	record := TradeRecord{Period: 3, Amount: "12345", ExactInput: true, ZeroForOne: true}
	intent, ok := record.Intent()
	if !ok {
		t.Fatalf("expected valid intent")
	}
	if intent.Period != 3 || intent.Amount.Int64() != 12345 || !intent.ExactInput || !intent.ZeroForOne {
		t.Fatalf("intent mismatch: %+v", intent)
	}

	bad := TradeRecord{Amount: "not-a-number"}
	if _, ok := bad.Intent(); ok {
		t.Fatalf("expected invalid intent")
	}
	negative := TradeRecord{Amount: "-5"}
	if _, ok := negative.Intent(); ok {
		t.Fatalf("negative amounts are invalid")
	}
}
