// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package mempool

import "testing"

func TestSimpleFeeClamped(t *testing.T) {
	p := NewSimpleFeePolicy(4).WithLimits(10, 100)
	tx := mkTx(1, 0) // size = 1 input + 1 output = 2, base*size = 8, below min
	if got := p.Calculate(tx); got != 10 {
		t.Fatalf("expected clamp to min 10, got %d", got)
	}
}

func TestDynamicFeeScalesWithCongestion(t *testing.T) {
	p := NewDynamicFeePolicy(10, 2.0)
	tx := mkTx(1, 0)
	base := NewSimpleFeePolicy(10).Calculate(tx)
	if got := p.Calculate(tx); got != base*2 {
		t.Fatalf("expected congestion multiplier to double the base fee, got %d vs base %d", got, base)
	}
}

func TestPriorityFeeSelectsMultiplierByLevel(t *testing.T) {
	p := NewPriorityFeePolicy(10, []float64{1.0, 2.0, 3.0})
	low := mkTx(1, 0)
	high := mkTx(2, 5) // clamped to len(multipliers)-1 = 2
	if got := p.Calculate(low); got != 10*2 {
		t.Fatalf("expected level-0 multiplier, got %d", got)
	}
	if got := p.Calculate(high); got != 10*2*3 {
		t.Fatalf("expected level-2 multiplier, got %d", got)
	}
}
