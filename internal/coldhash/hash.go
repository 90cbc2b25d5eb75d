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

// Package coldhash implements the domain-separated Blake2b-256 hash used
// throughout COLD L3, plus the Merkle root over transaction hashes.
package coldhash

import (
	"golang.org/x/crypto/blake2b"
)

// Hash is a 32-byte digest.
type Hash [32]byte

// Domain tags. Every caller prefixes its input with one of these; no
// length-prefixing, per spec.
var (
	TagHeat   = []byte("HEAT")
	TagYield  = []byte("YIELD")
	TagHeader = []byte("HEADER")
	TagTx     = []byte("TX")
)

// H hashes tag || parts... with Blake2b truncated to 256 bits.
func H(tag []byte, parts ...[]byte) Hash {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails on a bad key length, and we never pass one.
		panic(err)
	}
	hasher.Write(tag)
	for _, p := range parts {
		hasher.Write(p)
	}
	var out Hash
	copy(out[:], hasher.Sum(nil))
	return out
}

// Merkle computes the Merkle root over leaves by iterative pair-hashing
// with left-carry on odd counts. Ties are broken left-to-right; leaves are
// never sorted. An empty leaf set roots to the zero hash.
func Merkle(leaves []Hash) Hash {
	if len(leaves) == 0 {
		return Hash{}
	}
	level := make([]Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, pairHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}

func pairHash(left, right Hash) Hash {
	return H(TagTx, left[:], right[:])
}
