// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/ColinRitman/cold-l3/internal/fuego"
	"github.com/ColinRitman/cold-l3/internal/settlement"
)

// twoStageClient returns Pending on its first Submit for a given header and
// Confirmed afterward, standing in for a settlement chain whose
// confirmation arrives on a later poll rather than synchronously.
type twoStageClient struct {
	mu    sync.Mutex
	calls map[[32]byte]int
}

func newTwoStageClient() *twoStageClient {
	return &twoStageClient{calls: make(map[[32]byte]int)}
}

func (c *twoStageClient) Submit(_ context.Context, headerHash [32]byte, _ []byte, _ uint64) (settlement.SubmitResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[headerHash]++
	if c.calls[headerHash] == 1 {
		return settlement.SubmitResult{Status: settlement.StatusPending}, nil
	}
	return settlement.SubmitResult{Status: settlement.StatusConfirmed, TxHash: "0xabc"}, nil
}

// TestMain checks the relayer's tick-loop goroutine is always cleaned up by
// Stop, across every test in this package.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testBlock(height uint64) chain.Block {
	header := chain.BlockHeader{
		Height:     height,
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: 1,
	}
	if height > 0 {
		header.PrevHash = chain.Hash32{1}
	}
	return chain.Block{Header: header}
}

// TestBridgeLifecycle is the literal bridge-lifecycle scenario: a valid
// height-1 block moves Pending -> Submitted with disjoint tables and
// stats.total_proofs_submitted == 1.
func TestBridgeLifecycle(t *testing.T) {
	r := New(DefaultConfig(), fuego.New(), settlement.NewSimulated(settlement.SimulatedConfig{Latency: time.Millisecond, FailureRate: 0}))

	block := testBlock(1)
	proof, err := r.CreateBridgeProof(block)
	if err != nil {
		t.Fatalf("create bridge proof: %v", err)
	}
	if proof.Status != ProofPending {
		t.Fatalf("expected Pending status, got %v", proof.Status)
	}
	if r.PendingCount() != 1 {
		t.Fatalf("expected 1 pending proof")
	}

	if err := r.SubmitToArbitrum(context.Background(), proof); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if r.PendingCount() != 0 {
		t.Fatalf("expected 0 pending after submit, got %d", r.PendingCount())
	}
	if r.SubmittedCount() != 1 {
		t.Fatalf("expected 1 submitted after submit, got %d", r.SubmittedCount())
	}

	stats := r.StatsSnapshot()
	if stats.Successful != 1 {
		t.Fatalf("expected stats.Successful == 1, got %d", stats.Successful)
	}
	if stats.AverageTime < 0 {
		t.Fatalf("expected a non-negative average submission time, got %v", stats.AverageTime)
	}

	r.mu.Lock()
	submitted := r.submitted[block.Header.Hash()]
	r.mu.Unlock()
	if submitted.Status != ProofConfirmed {
		t.Fatalf("expected a synchronous settlement confirmation to mark the proof Confirmed, got %v", submitted.Status)
	}
}

func TestSubmitDeferredConfirmationPromotesOnPoll(t *testing.T) {
	client := newTwoStageClient()
	r := New(DefaultConfig(), fuego.New(), client)

	proof, err := r.CreateBridgeProof(testBlock(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.SubmitToArbitrum(context.Background(), proof); err != nil {
		t.Fatalf("submit: %v", err)
	}

	hash := proof.Header.Hash()

	r.mu.Lock()
	status := r.submitted[hash].Status
	r.mu.Unlock()
	if status != ProofSubmitted {
		t.Fatalf("expected ProofSubmitted while awaiting a deferred confirmation, got %v", status)
	}

	r.pollSubmittedProofs()

	r.mu.Lock()
	status = r.submitted[hash].Status
	r.mu.Unlock()
	if status != ProofConfirmed {
		t.Fatalf("expected ProofConfirmed after a poll observes settlement.StatusConfirmed, got %v", status)
	}
}

func TestCreateBridgeProofRejectsInvalidHeader(t *testing.T) {
	r := New(DefaultConfig(), fuego.New(), settlement.NewSimulated(settlement.DefaultSimulatedConfig()))

	block := chain.Block{Header: chain.BlockHeader{
		Height:     0,
		PrevHash:   chain.Hash32{1, 1, 1},
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: 1,
	}}

	if _, err := r.CreateBridgeProof(block); err != ErrInvalidHeader {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestSubmitFailureKeepsProofPending(t *testing.T) {
	r := New(DefaultConfig(), fuego.New(), settlement.NewSimulated(settlement.SimulatedConfig{Latency: time.Millisecond, FailureRate: 1}))

	proof, err := r.CreateBridgeProof(testBlock(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := r.SubmitToArbitrum(context.Background(), proof); err == nil {
		t.Fatalf("expected submission failure")
	}
	if r.PendingCount() != 1 {
		t.Fatalf("expected the proof to remain pending after a failed submission")
	}
	if r.SubmittedCount() != 0 {
		t.Fatalf("expected no submitted proofs")
	}

	stats := r.StatsSnapshot()
	if stats.Failed != 1 {
		t.Fatalf("expected stats.Failed == 1, got %d", stats.Failed)
	}
}

func TestEncodeArbitrumProofIs52Bytes(t *testing.T) {
	header := chain.BlockHeader{Height: 1, Timestamp: 2, Difficulty: 1}
	encoded := EncodeArbitrumProof(header, 3)
	if len(encoded) != 52 {
		t.Fatalf("expected 52-byte wire format, got %d bytes", len(encoded))
	}
}

func TestRelayerLifecycle(t *testing.T) {
	r := New(Config{Interval: time.Millisecond, ProofTimeout: time.Second, MaxRetryDelay: time.Second},
		fuego.New(), settlement.NewSimulated(settlement.SimulatedConfig{Latency: time.Millisecond}))

	if status, _ := r.Status(); status != BridgeInitializing {
		t.Fatalf("expected Initializing, got %v", status)
	}
	r.Start()
	if status, _ := r.Status(); status != BridgeRunning {
		t.Fatalf("expected Running, got %v", status)
	}
	r.Stop()
	if status, _ := r.Status(); status != BridgeStopped {
		t.Fatalf("expected Stopped, got %v", status)
	}
}
