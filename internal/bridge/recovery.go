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

package bridge

import (
	"bytes"
	"encoding/gob"

	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/syndtr/goleveldb/leveldb"
)

// RecoveryStore persists pending bridge proofs to a leveldb instance
// distinct from the node's pebble state store, so an unclean shutdown
// doesn't lose proofs awaiting submission or retry.
type RecoveryStore struct {
	db *leveldb.DB
}

// OpenRecoveryStore opens (creating if absent) a leveldb instance at dir.
func OpenRecoveryStore(dir string) (*RecoveryStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &RecoveryStore{db: db}, nil
}

// Close releases the underlying leveldb handle.
func (s *RecoveryStore) Close() error {
	return s.db.Close()
}

// Save persists proof keyed by its header hash.
func (s *RecoveryStore) Save(hash chain.Hash32, proof Proof) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(proof); err != nil {
		return err
	}
	return s.db.Put(hash[:], buf.Bytes(), nil)
}

// Delete removes a persisted proof, called once it reaches Submitted.
func (s *RecoveryStore) Delete(hash chain.Hash32) error {
	return s.db.Delete(hash[:], nil)
}

// LoadAll replays every persisted proof, keyed by header hash, for
// reinstating the relayer's pending table after a restart.
func (s *RecoveryStore) LoadAll() (map[chain.Hash32]Proof, error) {
	out := make(map[chain.Hash32]Proof)

	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		var hash chain.Hash32
		copy(hash[:], iter.Key())

		var proof Proof
		if err := gob.NewDecoder(bytes.NewReader(iter.Value())).Decode(&proof); err != nil {
			return nil, err
		}
		out[hash] = proof
	}
	return out, iter.Error()
}
