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

// Package pob implements the proof-of-burn AIR: a 5-column by 64-row
// execution trace over a prime field, its degree-1 transition
// constraints, and its boundary assertions. No FFT/FRI/polynomial
// commitment layer exists in the retrieved corpus, so this package
// checks constraint satisfaction directly rather than producing a
// succinct STARK; see the package-level note in prove.go.
package pob

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

const (
	// TraceRows is the fixed execution trace length.
	TraceRows = 64
	// TraceCols is the fixed column count: secret, nullifier, commitment,
	// block_height, recipient_hash.
	TraceCols = 5
)

const (
	colSecret = iota
	colNullifier
	colCommitment
	colBlockHeight
	colRecipientHash
)

// Row is one step of the execution trace.
type Row [TraceCols]fr.Element

// Trace is the full TraceRows x TraceCols execution trace.
type Trace [TraceRows]Row

// CheckTransitions verifies every row-to-row transition constraint:
//   next[nullifier]  - current[secret]^2     == 0
//   next[commitment] - current[nullifier]^2  == 0
//   next[block_height]   - current[block_height]   == 0
//   next[recipient_hash] - current[recipient_hash] == 0
func (t Trace) CheckTransitions() bool {
	for i := 0; i < TraceRows-1; i++ {
		current := t[i]
		next := t[i+1]

		var sq fr.Element

		sq.Square(&current[colSecret])
		if !sq.Equal(&next[colNullifier]) {
			return false
		}

		sq.Square(&current[colNullifier])
		if !sq.Equal(&next[colCommitment]) {
			return false
		}

		if !current[colBlockHeight].Equal(&next[colBlockHeight]) {
			return false
		}
		if !current[colRecipientHash].Equal(&next[colRecipientHash]) {
			return false
		}
	}
	return true
}

// Assertions bundles the public values a trace's boundary rows must
// match.
type Assertions struct {
	Secret         fr.Element
	Nullifier      fr.Element
	Commitment     fr.Element
	BlockHeight    fr.Element
	RecipientHash  fr.Element
}

// CheckAssertions verifies the five boundary assertions:
//   row 0  col secret         == Secret
//   row 63 col nullifier      == Nullifier
//   row 63 col commitment     == Commitment
//   row 0  col block_height   == BlockHeight
//   row 0  col recipient_hash == RecipientHash
func (t Trace) CheckAssertions(a Assertions) bool {
	last := TraceRows - 1
	return t[0][colSecret].Equal(&a.Secret) &&
		t[last][colNullifier].Equal(&a.Nullifier) &&
		t[last][colCommitment].Equal(&a.Commitment) &&
		t[0][colBlockHeight].Equal(&a.BlockHeight) &&
		t[0][colRecipientHash].Equal(&a.RecipientHash)
}
