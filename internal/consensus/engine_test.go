// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package consensus

import (
	"time"

	"testing"

	"go.uber.org/goleak"

	"github.com/ColinRitman/cold-l3/internal/bft"
	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/ColinRitman/cold-l3/internal/mempool"
	"github.com/ColinRitman/cold-l3/internal/miner"
)

// TestMain checks that the drainFinality/drainMailbox goroutines launched by
// Start are always cleaned up by Stop, across every test in this package.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine() *Engine {
	pool := mempool.New(mempool.Config{
		MaxSize:  100,
		Fee:      mempool.NewSimpleFeePolicy(1),
		Priority: mempool.NewSimplePriorityPolicy(),
	})
	cfg := Config{
		PowDifficulty: 0,
		BFT:           bft.Config{NodeID: 0, TotalNodes: 1, MinFinality: 0, MaxBlockTxs: 100},
		Miner:         miner.DefaultConfig(),
	}
	return New(cfg, pool)
}

func TestProposeRejectedBeforeStart(t *testing.T) {
	e := newTestEngine()
	if _, err := e.ProposeBlock(10); err != ErrNotRunning {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestProposeHappyPathFinalizes(t *testing.T) {
	e := newTestEngine()
	e.Start()
	defer e.Stop()

	tx := chain.Transaction{
		Hash:    chain.Hash32{1},
		Inputs:  []chain.Input{{Signature: []byte("sig")}},
		Outputs: []chain.Output{{Amount: 1, Address: []byte("addr")}},
		Fee:     10,
	}
	if err := e.pool.Add(tx); err != nil {
		t.Fatalf("add tx: %v", err)
	}

	block, err := e.ProposeBlock(10)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("expected 1 tx in proposed block, got %d", len(block.Transactions))
	}

	deadline := time.After(time.Second)
	for {
		if len(e.FinalizedBlocks()) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for block finalization")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	e := newTestEngine()
	if status, _ := e.Status(); status != StatusStarting {
		t.Fatalf("expected Starting, got %v", status)
	}
	e.Start()
	if status, _ := e.Status(); status != StatusRunning {
		t.Fatalf("expected Running, got %v", status)
	}
	e.Stop()
	if status, _ := e.Status(); status != StatusStopped {
		t.Fatalf("expected Stopped, got %v", status)
	}
}

func TestReportErrorTransitionsToError(t *testing.T) {
	e := newTestEngine()
	e.Start()
	defer e.Stop()

	e.ReportError("synthetic failure")

	deadline := time.After(time.Second)
	for {
		if status, msg := e.Status(); status == StatusError {
			if msg != "synthetic failure" {
				t.Fatalf("unexpected error message: %q", msg)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for error state")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := e.ProposeBlock(10); err != ErrNotRunning {
		t.Fatalf("expected proposals to be rejected in Error state, got %v", err)
	}
}
