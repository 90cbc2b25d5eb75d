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

// Package chain holds the COLD L3 block, header and transaction record
// shapes shared across the consensus, mempool and bridge subsystems.
package chain

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/ColinRitman/cold-l3/internal/coldhash"
)

// Hash32 is a domain-separated content hash, always produced by coldhash.H.
type Hash32 = coldhash.Hash

// ProofKind identifies how a block was sealed.
type ProofKind uint8

const (
	ProofPoW ProofKind = iota
	ProofPoS
	ProofHybrid
)

// BlockHeader is the identity-bearing part of a block. Immutable once
// constructed; callers that need a new nonce/timestamp build a new header.
type BlockHeader struct {
	Height     uint64
	PrevHash   Hash32
	MerkleRoot Hash32
	Timestamp  uint64
	Nonce      uint64
	Difficulty uint64
}

var (
	ErrGenesisPrevHash = errors.New("chain: height 0 requires zero prev_hash")
	ErrZeroDifficulty  = errors.New("chain: zero difficulty header")
	ErrFutureTimestamp = errors.New("chain: header timestamp too far in the future")
)

// maxClockSkew bounds how far into the future a header timestamp may claim
// to be (spec: "timestamp <= now + 3600s").
const maxClockSkew = 3600 * time.Second

// Verify checks the header invariants from the data model: height==0
// requires a zero prev_hash, difficulty>0, and the timestamp isn't from the
// future. A nonzero height with a zero prev_hash is not rejected.
func (h BlockHeader) Verify(now time.Time) error {
	zero := Hash32{}
	if h.Height == 0 && h.PrevHash != zero {
		return ErrGenesisPrevHash
	}
	if h.Difficulty == 0 {
		return ErrZeroDifficulty
	}
	if time.Unix(int64(h.Timestamp), 0).After(now.Add(maxClockSkew)) {
		return ErrFutureTimestamp
	}
	return nil
}

// Hash is the header's identity: H("HEADER", height, prev_hash, merkle_root,
// timestamp, nonce, difficulty).
func (h BlockHeader) Hash() Hash32 {
	parts := make([][]byte, 0, 6)

	le := func(v uint64) []byte {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		return b
	}

	parts = append(parts, le(h.Height))
	parts = append(parts, h.PrevHash[:])
	parts = append(parts, h.MerkleRoot[:])
	parts = append(parts, le(h.Timestamp))
	parts = append(parts, le(h.Nonce))
	parts = append(parts, le(h.Difficulty))

	return coldhash.H(coldhash.TagHeader, parts...)
}

// Input is a spent prior output, authorized by an opaque signature (the P2P
// / signing layer's concern, not this package's).
type Input struct {
	PrevTxHash Hash32
	OutIndex   uint32
	Signature  []byte
}

// Output is a single payment to an address.
type Output struct {
	Amount  uint64
	Address []byte
}

// Transaction is a UTXO-like record. Hash is supplied by the producer and
// treated as opaque identity by the mempool.
type Transaction struct {
	Hash      Hash32
	Inputs    []Input
	Outputs   []Output
	Fee       uint64
	Timestamp uint64
}

var (
	ErrNoInputs       = errors.New("chain: transaction has no inputs")
	ErrNoOutputs      = errors.New("chain: transaction has no outputs")
	ErrZeroAmount     = errors.New("chain: output amount must be positive")
	ErrEmptyAddress   = errors.New("chain: output address is empty")
	ErrMissingSig     = errors.New("chain: input missing signature")
)

// WellFormed checks the structural invariants from the data model. Fee
// sufficiency is a mempool policy concern, not checked here.
func (t Transaction) WellFormed() error {
	if len(t.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(t.Outputs) == 0 {
		return ErrNoOutputs
	}
	for _, in := range t.Inputs {
		if len(in.Signature) == 0 {
			return ErrMissingSig
		}
	}
	for _, out := range t.Outputs {
		if out.Amount == 0 {
			return ErrZeroAmount
		}
		if len(out.Address) == 0 {
			return ErrEmptyAddress
		}
	}
	return nil
}

// Proof carries the sealing evidence attached to a block (PoW nonce bytes,
// a future PoS signature bundle, or a hybrid combination).
type Proof struct {
	Kind ProofKind
	Data []byte
}

// Block pairs a header with its transaction batch and sealing proof.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
	Proof        Proof
}

var ErrMerkleMismatch = errors.New("chain: header merkle_root does not match transactions")

// Verify checks header.merkle_root == merkle(transactions.map(.hash)) along
// with the header's own invariants.
func (b Block) Verify(now time.Time) error {
	if err := b.Header.Verify(now); err != nil {
		return err
	}
	leaves := make([]Hash32, len(b.Transactions))
	for i, tx := range b.Transactions {
		leaves[i] = tx.Hash
	}
	if coldhash.Merkle(leaves) != b.Header.MerkleRoot {
		return ErrMerkleMismatch
	}
	return nil
}
