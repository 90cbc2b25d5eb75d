// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package fuego

import (
	"testing"
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
)

// TestHeaderRejection is the literal header-rejection scenario: height=0
// with a nonzero prev_hash must be invalid.
func TestHeaderRejection(t *testing.T) {
	v := New()
	header := chain.BlockHeader{
		Height:     0,
		PrevHash:   chain.Hash32{1, 1, 1},
		MerkleRoot: chain.Hash32{},
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: 1000,
	}

	result := v.Verify(header)
	if result.IsValid {
		t.Fatalf("expected is_valid == false for genesis height with nonzero prev_hash")
	}
}

func TestValidHeaderAccepted(t *testing.T) {
	v := New()
	header := chain.BlockHeader{
		Height:     1,
		PrevHash:   chain.Hash32{9},
		MerkleRoot: chain.Hash32{},
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: 1,
	}
	if result := v.Verify(header); !result.IsValid {
		t.Fatalf("expected valid header to be accepted, got error %q", result.Error)
	}
}

func TestVerifyMemoizesByHash(t *testing.T) {
	v := New()
	header := chain.BlockHeader{
		Height:     1,
		PrevHash:   chain.Hash32{2},
		MerkleRoot: chain.Hash32{},
		Timestamp:  uint64(time.Now().Unix()),
		Difficulty: 1,
	}

	first := v.Verify(header)
	second := v.Verify(header)
	if first.IsValid != second.IsValid {
		t.Fatalf("expected memoized result to match")
	}
}

func TestVerifyHeadersBatch(t *testing.T) {
	v := New()
	headers := []chain.BlockHeader{
		{Height: 1, PrevHash: chain.Hash32{1}, Timestamp: uint64(time.Now().Unix()), Difficulty: 1},
		{Height: 0, PrevHash: chain.Hash32{1, 1, 1}, Timestamp: uint64(time.Now().Unix()), Difficulty: 1},
		{Height: 2, PrevHash: chain.Hash32{2}, Timestamp: uint64(time.Now().Unix()), Difficulty: 1},
	}

	results := v.VerifyHeaders(headers)
	if len(results) != len(headers) {
		t.Fatalf("expected %d results, got %d", len(headers), len(results))
	}
	if !results[0].IsValid {
		t.Fatalf("expected headers[0] valid")
	}
	if results[1].IsValid {
		t.Fatalf("expected headers[1] invalid (genesis height with nonzero prev_hash)")
	}
	if !results[2].IsValid {
		t.Fatalf("expected headers[2] valid")
	}
}

func TestZeroDifficultyRejected(t *testing.T) {
	v := New()
	header := chain.BlockHeader{
		Height:     1,
		PrevHash:   chain.Hash32{1},
		Difficulty: 0,
	}
	if v.Verify(header).IsValid {
		t.Fatalf("expected zero-difficulty header to be rejected")
	}
}
