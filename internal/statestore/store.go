// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.
//
// The go-equa library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-equa library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-equa library. If not, see <http://www.gnu.org/licenses/>.

// Package statestore implements the node's key/value persistence layer: a
// pebble-backed store whose commit operation returns the Merkle root of
// all committed pairs at that version.
package statestore

import (
	"sync"

	"github.com/ColinRitman/cold-l3/internal/coldhash"
	"github.com/cockroachdb/pebble"
)

// Store is the KV store consumed by the node: get/put/commit, where
// commit produces a content hash over the full committed key space.
type Store struct {
	db *pebble.DB

	mu      sync.Mutex
	pending map[string][]byte
}

// Open opens (creating if absent) a pebble database rooted at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, pending: make(map[string][]byte)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or (nil, false) if absent. Checks the
// uncommitted write buffer first so reads observe this version's own
// writes before commit.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	if v, ok := s.pending[string(key)]; ok {
		s.mu.Unlock()
		return v, true, nil
	}
	s.mu.Unlock()

	v, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put buffers key/value for the next Commit.
func (s *Store) Put(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	s.pending[string(k)] = v
}

// Commit flushes the buffered writes to pebble and returns the Merkle
// root of all committed key/value pairs (leaves hashed as key||value,
// ordered by key for determinism).
func (s *Store) Commit(version uint64) (coldhash.Hash, error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string][]byte)
	s.mu.Unlock()

	batch := s.db.NewBatch()
	keys := make([]string, 0, len(pending))
	for k, v := range pending {
		if err := batch.Set([]byte(k), v, nil); err != nil {
			return coldhash.Hash{}, err
		}
		keys = append(keys, k)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return coldhash.Hash{}, err
	}

	return s.merkleRoot()
}

// merkleRoot recomputes the Merkle root over every key currently stored,
// iterating pebble's keyspace in its natural (lexicographic) order.
func (s *Store) merkleRoot() (coldhash.Hash, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return coldhash.Hash{}, err
	}
	defer iter.Close()

	root := NewBranch(0)
	for iter.First(); iter.Valid(); iter.Next() {
		root.Insert(iter.Key(), iter.Value())
	}
	if err := iter.Error(); err != nil {
		return coldhash.Hash{}, err
	}

	return root.Hash(), nil
}
