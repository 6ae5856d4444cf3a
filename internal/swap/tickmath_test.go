package swap

import (
	"math/big"
	"testing"
)

func TestSqrtPriceAtTickZero(t *testing.T) {
	price, err := SqrtPriceAtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.Cmp(Q96) != 0 {
		t.Fatalf("price at tick 0 = %s, want 2^96", price)
	}
}

func TestSqrtPriceAtTickMonotonic(t *testing.T) {
	ticks := []int32{MinTick, -887000, -100000, -50, -1, 0, 1, 50, 100000, 887000, MaxTick}
	var prev *big.Int
	for _, tick := range ticks {
		price, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if prev != nil && price.Cmp(prev) <= 0 {
			t.Fatalf("price not increasing at tick %d", tick)
		}
		prev = price
	}
}

func TestSqrtPriceAtTickOutOfRange(t *testing.T) {
	if _, err := SqrtPriceAtTick(MaxTick + 1); err == nil {
		t.Fatalf("expected error above MaxTick")
	}
	if _, err := SqrtPriceAtTick(MinTick - 1); err == nil {
		t.Fatalf("expected error below MinTick")
	}
}

func TestTickAtSqrtPriceRoundTrip(t *testing.T) {
	ticks := []int32{-887000, -10000, -123, -1, 0, 1, 123, 10000, 887000}
	for _, tick := range ticks {
		price, err := SqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		got, err := TickAtSqrtPrice(price)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip for tick %d returned %d", tick, got)
		}
	}
}

func TestTickAtSqrtPriceBetweenTicks(t *testing.T) {
	lower, err := SqrtPriceAtTick(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upper, err := SqrtPriceAtTick(101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mid := new(big.Int).Add(lower, upper)
	mid.Rsh(mid, 1)
	got, err := TickAtSqrtPrice(mid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Fatalf("tick between 100 and 101 = %d, want 100", got)
	}
}

func TestTickAtSqrtPriceRejectsOutOfRange(t *testing.T) {
	if _, err := TickAtSqrtPrice(nil); err == nil {
		t.Fatalf("expected error for nil price")
	}
	tooSmall := new(big.Int).Sub(MinSqrtPriceX96, big.NewInt(1))
	if _, err := TickAtSqrtPrice(tooSmall); err == nil {
		t.Fatalf("expected error below min sqrt price")
	}
}
