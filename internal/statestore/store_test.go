// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package statestore

import (
	"testing"
)

func TestPutGetCommitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	s.Put([]byte("k1"), []byte("v1"))

	v, ok, err := s.Get([]byte("k1"))
	if err != nil || !ok || string(v) != "v1" {
		t.Fatalf("expected pending read to see v1, got %q ok=%v err=%v", v, ok, err)
	}

	root, err := s.Commit(1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if root == [32]byte{} {
		t.Fatalf("expected nonzero root after committing a key")
	}

	v2, ok2, err := s.Get([]byte("k1"))
	if err != nil || !ok2 || string(v2) != "v1" {
		t.Fatalf("expected post-commit read to see v1, got %q ok=%v err=%v", v2, ok2, err)
	}
}

func TestCommitEmptyStoreIsZeroRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	root, err := s.Commit(1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if root != [32]byte{} {
		t.Fatalf("expected zero root for an empty store")
	}
}

func TestGetMissingKey(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	_, ok, err := s.Get([]byte("missing"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key to report ok=false")
	}
}
