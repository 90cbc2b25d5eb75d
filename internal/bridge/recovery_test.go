// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package bridge

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ColinRitman/cold-l3/internal/fuego"
	"github.com/ColinRitman/cold-l3/internal/settlement"
)

func TestRecoveryStoreSaveLoadDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proofs")
	store, err := OpenRecoveryStore(dir)
	if err != nil {
		t.Fatalf("open recovery store: %v", err)
	}
	defer store.Close()

	block := testBlock(1)
	proof := newPendingProof(block.Header, 0, time.Now())
	hash := block.Header.Hash()

	if err := store.Save(hash, proof); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 recovered proof, got %d", len(loaded))
	}
	if loaded[hash].Header.Height != proof.Header.Height {
		t.Fatalf("recovered proof does not match saved proof")
	}

	if err := store.Delete(hash); err != nil {
		t.Fatalf("delete: %v", err)
	}
	loaded, err = store.LoadAll()
	if err != nil {
		t.Fatalf("load all after delete: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected 0 proofs after delete, got %d", len(loaded))
	}
}

func TestNewWithRecoveryReplaysPendingProofs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proofs")

	r1, err := NewWithRecovery(DefaultConfig(), fuego.New(), settlement.NewSimulated(settlement.DefaultSimulatedConfig()), dir)
	if err != nil {
		t.Fatalf("new with recovery: %v", err)
	}
	if _, err := r1.CreateBridgeProof(testBlock(1)); err != nil {
		t.Fatalf("create bridge proof: %v", err)
	}
	if err := r1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r2, err := NewWithRecovery(DefaultConfig(), fuego.New(), settlement.NewSimulated(settlement.DefaultSimulatedConfig()), dir)
	if err != nil {
		t.Fatalf("reopen with recovery: %v", err)
	}
	defer r2.Close()

	if r2.PendingCount() != 1 {
		t.Fatalf("expected recovered proof to be pending, got %d", r2.PendingCount())
	}
}
