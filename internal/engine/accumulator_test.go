package engine

import (
	"testing"

	"github.com/holiman/uint256"

	"lvrfee/internal/model"
)

func newFeeState() *model.PoolFeeState {
	return &model.PoolFeeState{SumSquaredDeltas: uint256.NewInt(0)}
}

func TestObserveVarianceAccumulatesWithinPeriod(t *testing.T) {
	st := newFeeState()
	st.PeriodID = 7

	if finalized := observeVariance(st, 7, 0, 50); finalized != nil {
		t.Fatalf("expected open period, got finalized %s", finalized.Dec())
	}
	if finalized := observeVariance(st, 7, 50, 20); finalized != nil {
		t.Fatalf("expected open period, got finalized value")
	}

	// 50^2 + 30^2 = 3400.
	if got := st.SumSquaredDeltas.Uint64(); got != 3400 {
		t.Fatalf("sum = %d, want 3400", got)
	}
	if st.PeriodID != 7 {
		t.Fatalf("period = %d, want 7", st.PeriodID)
	}
}

func TestObserveVariancePeriodClose(t *testing.T) {
	st := newFeeState()
	st.PeriodID = 1
	observeVariance(st, 1, 0, 50)

	finalized := observeVariance(st, 2, 50, 60)
	if finalized == nil {
		t.Fatalf("expected finalized sum at period close")
	}
	if got := finalized.Uint64(); got != 2500 {
		t.Fatalf("finalized = %d, want 2500", got)
	}
	// The closing trade seeds the new period.
	if got := st.SumSquaredDeltas.Uint64(); got != 100 {
		t.Fatalf("sum = %d, want 100", got)
	}
	if st.PeriodID != 2 {
		t.Fatalf("period = %d, want 2", st.PeriodID)
	}
}

func TestObserveVarianceStalePeriodAccumulates(t *testing.T) {
	st := newFeeState()
	st.PeriodID = 5
	observeVariance(st, 5, 0, 10)

	// An observation claiming an older period belongs to the current one;
	// the period id never rewinds.
	if finalized := observeVariance(st, 3, 10, 20); finalized != nil {
		t.Fatalf("stale period must not close the window")
	}
	if st.PeriodID != 5 {
		t.Fatalf("period = %d, want 5", st.PeriodID)
	}
	if got := st.SumSquaredDeltas.Uint64(); got != 200 {
		t.Fatalf("sum = %d, want 200", got)
	}
}

func TestObserveVarianceNegativeDelta(t *testing.T) {
	st := newFeeState()
	st.PeriodID = 1
	if observeVariance(st, 1, 100, 40) != nil {
		t.Fatalf("unexpected period close")
	}
	if got := st.SumSquaredDeltas.Uint64(); got != 3600 {
		t.Fatalf("sum = %d, want 3600", got)
	}
}
