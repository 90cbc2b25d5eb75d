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

package statestore

import (
	"sort"

	"github.com/ColinRitman/cold-l3/internal/coldhash"
)

// Node is one node of the byte-indexed accumulator trie: Empty, Leaf or
// Branch. Hash is recomputed on demand rather than cached, since the
// accumulator is rebuilt wholesale on each Commit (see merkleRoot).
type Node interface {
	Hash() coldhash.Hash
}

// Empty is the zero node: an unpopulated subtree hashes to the zero
// hash, mirroring coldhash.Merkle's empty-input convention.
type Empty struct{}

func (Empty) Hash() coldhash.Hash { return coldhash.Hash{} }

// Leaf holds one key/value pair at the bottom of the trie.
type Leaf struct {
	Key   []byte
	Value []byte
}

// Hash of a leaf is H("TX", key, value), matching the tag used for pair
// hashing elsewhere in coldhash.
func (l Leaf) Hash() coldhash.Hash {
	return coldhash.H(coldhash.TagTx, l.Key, l.Value)
}

// Branch fans out on the byte at its depth. Only populated children are
// stored; Hash folds children left-to-right through coldhash.Merkle,
// giving the same left-carry-on-odd-count behavior as the rest of the
// module's Merkle trees.
type Branch struct {
	depth    int
	children map[byte]Node
}

// NewBranch constructs an empty Branch at depth.
func NewBranch(depth int) *Branch {
	return &Branch{depth: depth, children: make(map[byte]Node)}
}

// Insert places (key, value) into the subtree rooted at b, growing
// Branch nodes as needed until the keys diverge or are exhausted.
func (b *Branch) Insert(key, value []byte) {
	if b.depth >= len(key) {
		return
	}
	idx := key[b.depth]
	child, ok := b.children[idx]
	if !ok {
		b.children[idx] = Leaf{Key: append([]byte(nil), key...), Value: append([]byte(nil), value...)}
		return
	}

	switch c := child.(type) {
	case Leaf:
		if string(c.Key) == string(key) {
			b.children[idx] = Leaf{Key: key, Value: value}
			return
		}
		nb := NewBranch(b.depth + 1)
		nb.Insert(c.Key, c.Value)
		nb.Insert(key, value)
		b.children[idx] = nb
	case *Branch:
		c.Insert(key, value)
	}
}

// Hash folds this branch's populated children, in ascending index order,
// through coldhash.Merkle.
func (b *Branch) Hash() coldhash.Hash {
	if len(b.children) == 0 {
		return coldhash.Hash{}
	}
	indices := make([]int, 0, len(b.children))
	for idx := range b.children {
		indices = append(indices, int(idx))
	}
	sort.Ints(indices)

	leaves := make([]coldhash.Hash, len(indices))
	for i, idx := range indices {
		leaves[i] = b.children[byte(idx)].Hash()
	}
	return coldhash.Merkle(leaves)
}
