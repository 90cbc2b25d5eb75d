// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package statestore

import "testing"

func TestBranchHashDeterministic(t *testing.T) {
	b1 := NewBranch(0)
	b1.Insert([]byte("alpha"), []byte("1"))
	b1.Insert([]byte("beta"), []byte("2"))

	b2 := NewBranch(0)
	b2.Insert([]byte("alpha"), []byte("1"))
	b2.Insert([]byte("beta"), []byte("2"))

	if b1.Hash() != b2.Hash() {
		t.Fatalf("expected identical insert sequences to hash identically")
	}
}

func TestBranchHashChangesOnUpdate(t *testing.T) {
	b := NewBranch(0)
	b.Insert([]byte("alpha"), []byte("1"))
	before := b.Hash()

	b.Insert([]byte("alpha"), []byte("2"))
	after := b.Hash()

	if before == after {
		t.Fatalf("expected updating a value to change the root hash")
	}
}

func TestEmptyBranchIsZeroHash(t *testing.T) {
	b := NewBranch(0)
	if b.Hash() != (Empty{}).Hash() {
		t.Fatalf("expected empty branch to hash like Empty")
	}
}
