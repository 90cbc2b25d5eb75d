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

// Package bridge implements the Fuego-to-Arbitrum header relayer: the
// per-proof Pending/Submitted/Confirmed/Failed lifecycle and the
// periodic relayer tick that drives proofs through it.
package bridge

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
)

// ProofStatus names a bridge proof's position in its lifecycle.
type ProofStatus uint8

const (
	ProofPending ProofStatus = iota
	ProofSubmitted
	ProofConfirmed
	ProofFailed
)

func (s ProofStatus) String() string {
	switch s {
	case ProofPending:
		return "pending"
	case ProofSubmitted:
		return "submitted"
	case ProofConfirmed:
		return "confirmed"
	case ProofFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Proof is one Fuego header's bridging record.
type Proof struct {
	Header       chain.BlockHeader
	ArbitrumData []byte
	SubmittedAt  uint64
	Status       ProofStatus
	FailReason   string
}

var (
	ErrInvalidHeader = errors.New("bridge: header failed verification")
)

// EncodeArbitrumProof builds the fixed 52-byte wire format:
// header_hash(32) || le64(height) || le64(timestamp) || le32(tx_count).
func EncodeArbitrumProof(header chain.BlockHeader, txCount uint32) []byte {
	hash := header.Hash()
	buf := make([]byte, 0, 52)
	buf = append(buf, hash[:]...)

	var le8 [8]byte
	binary.LittleEndian.PutUint64(le8[:], header.Height)
	buf = append(buf, le8[:]...)

	binary.LittleEndian.PutUint64(le8[:], header.Timestamp)
	buf = append(buf, le8[:]...)

	var le4 [4]byte
	binary.LittleEndian.PutUint32(le4[:], txCount)
	buf = append(buf, le4[:]...)

	return buf
}

// newPendingProof builds a Pending proof record for header at the given
// transaction count and wall-clock time.
func newPendingProof(header chain.BlockHeader, txCount uint32, now time.Time) Proof {
	return Proof{
		Header:       header,
		ArbitrumData: EncodeArbitrumProof(header, txCount),
		SubmittedAt:  uint64(now.Unix()),
		Status:       ProofPending,
	}
}
