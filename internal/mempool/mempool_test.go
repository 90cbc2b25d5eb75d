// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package mempool

import (
	"testing"

	"github.com/ColinRitman/cold-l3/internal/chain"
)

func mkTx(hashByte byte, fee uint64) chain.Transaction {
	return chain.Transaction{
		Hash:    chain.Hash32{hashByte},
		Inputs:  []chain.Input{{Signature: []byte("sig")}},
		Outputs: []chain.Output{{Amount: 1, Address: []byte("addr")}},
		Fee:     fee,
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	p := New(Config{MaxSize: 10, Fee: NewSimpleFeePolicy(1), Priority: NewSimplePriorityPolicy()})

	if err := p.Add(chain.Transaction{}); err == nil {
		t.Fatalf("expected error for empty transaction")
	}
	if err := p.Add(mkTx(1, 0)); err == nil {
		t.Fatalf("expected error for zero fee")
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	p := New(Config{MaxSize: 10, Fee: NewSimpleFeePolicy(1), Priority: NewSimplePriorityPolicy()})
	tx := mkTx(1, 10)

	if err := p.Add(tx); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := p.Add(tx); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPoolFullBoundary(t *testing.T) {
	p := New(Config{MaxSize: 2, Fee: NewSimpleFeePolicy(1), Priority: NewSimplePriorityPolicy()})

	if err := p.Add(mkTx(1, 10)); err != nil {
		t.Fatalf("add 1: %v", err)
	}
	if err := p.Add(mkTx(2, 10)); err != nil {
		t.Fatalf("add 2: %v", err)
	}
	if err := p.Add(mkTx(3, 10)); err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}

	stats := p.Stats()
	if stats.Count != 2 || stats.Max != 2 || stats.Utilization != 1.0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestEvictLowestOnFull(t *testing.T) {
	p := New(Config{MaxSize: 2, Fee: NewSimpleFeePolicy(1), Priority: NewSimplePriorityPolicy(), EvictLowestOnFull: true})

	if err := p.Add(mkTx(1, 5)); err != nil {
		t.Fatalf("add 1: %v", err)
	}
	if err := p.Add(mkTx(2, 10)); err != nil {
		t.Fatalf("add 2: %v", err)
	}
	if err := p.Add(mkTx(3, 50)); err != nil {
		t.Fatalf("expected the higher-fee tx to evict the lowest, got %v", err)
	}

	if p.has(chain.Hash32{1}) {
		t.Fatalf("expected lowest-priority tx to have been evicted")
	}
	if !p.has(chain.Hash32{3}) {
		t.Fatalf("expected new high-priority tx to be present")
	}
}

func TestRemoveRoundTrip(t *testing.T) {
	p := New(Config{MaxSize: 10, Fee: NewSimpleFeePolicy(1), Priority: NewSimplePriorityPolicy()})
	tx := mkTx(1, 10)

	if err := p.Add(tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := p.Remove(tx.Hash); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := p.Remove(tx.Hash); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
	if err := p.Add(tx); err != nil {
		t.Fatalf("re-add after remove should succeed: %v", err)
	}
}

// TestMempoolOrdering is the fees 10/30/20 -> descending-priority scenario.
func TestMempoolOrdering(t *testing.T) {
	p := New(Config{MaxSize: 10, Fee: NewSimpleFeePolicy(1), Priority: NewSimplePriorityPolicy()})

	if err := p.Add(mkTx(1, 10)); err != nil {
		t.Fatalf("add fee=10: %v", err)
	}
	if err := p.Add(mkTx(2, 30)); err != nil {
		t.Fatalf("add fee=30: %v", err)
	}
	if err := p.Add(mkTx(3, 20)); err != nil {
		t.Fatalf("add fee=20: %v", err)
	}

	got := p.Take(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	if got[0].Fee != 30 || got[1].Fee != 20 || got[2].Fee != 10 {
		t.Fatalf("expected descending fee order 30,20,10, got %d,%d,%d", got[0].Fee, got[1].Fee, got[2].Fee)
	}
}

func TestClear(t *testing.T) {
	p := New(Config{MaxSize: 10, Fee: NewSimpleFeePolicy(1), Priority: NewSimplePriorityPolicy()})
	_ = p.Add(mkTx(1, 10))
	_ = p.Add(mkTx(2, 20))

	p.Clear()

	stats := p.Stats()
	if stats.Count != 0 {
		t.Fatalf("expected empty pool after Clear, got count=%d", stats.Count)
	}
	if len(p.Take(10)) != 0 {
		t.Fatalf("expected no transactions after Clear")
	}
}
