// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package miner

import (
	"testing"

	"github.com/ColinRitman/cold-l3/internal/chain"
)

func TestMineFindsLowDifficultySolution(t *testing.T) {
	m := New(Config{MaxNonce: 1_000_000, HashRateSampleEvery: 1000})
	header := chain.BlockHeader{
		Height:     1,
		PrevHash:   chain.Hash32{1},
		MerkleRoot: chain.Hash32{2},
		Difficulty: 1,
	}

	result, err := m.Mine(header, nil)
	if err != nil {
		t.Fatalf("expected a solution at difficulty 1, got %v", err)
	}
	if !MeetsDifficulty(result.Hash, 1) {
		t.Fatalf("solution hash does not meet difficulty 1")
	}
	if result.Header.Nonce != result.Nonce {
		t.Fatalf("returned header nonce should match the reported nonce")
	}
}

func TestMineMaxNonceReached(t *testing.T) {
	m := New(Config{MaxNonce: 5})
	header := chain.BlockHeader{
		Height:     1,
		PrevHash:   chain.Hash32{1},
		MerkleRoot: chain.Hash32{2},
		Difficulty: 255, // effectively unreachable in 5 attempts
	}

	_, err := m.Mine(header, nil)
	if err != ErrMaxNonceReached {
		t.Fatalf("expected ErrMaxNonceReached, got %v", err)
	}
}

func TestMineStopChannel(t *testing.T) {
	m := New(Config{MaxNonce: ^uint64(0)})
	header := chain.BlockHeader{
		Height:     1,
		PrevHash:   chain.Hash32{1},
		MerkleRoot: chain.Hash32{2},
		Difficulty: 255,
	}

	stop := make(chan struct{})
	close(stop)

	_, err := m.Mine(header, stop)
	if err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestDifficultyToTargetAndHashMeetsTarget(t *testing.T) {
	var h chain.Hash32
	if !HashMeetsTarget(h, DifficultyToTarget(256)) {
		t.Fatalf("all-zero hash should meet a 256-bit difficulty target")
	}
	h[0] = 0x80
	if HashMeetsTarget(h, DifficultyToTarget(1)) {
		t.Fatalf("top bit set should not meet a 1-bit difficulty target")
	}
	h[0] = 0x01
	if !HashMeetsTarget(h, DifficultyToTarget(7)) {
		t.Fatalf("0x01.. should meet a 7-bit difficulty target")
	}
	if HashMeetsTarget(h, DifficultyToTarget(8)) {
		t.Fatalf("0x01.. should not meet an 8-bit difficulty target")
	}
}

func TestDifficultyToTargetOverflow(t *testing.T) {
	if !DifficultyToTarget(300).IsZero() {
		t.Fatalf("difficulty >= 256 should collapse to a zero target")
	}
}
