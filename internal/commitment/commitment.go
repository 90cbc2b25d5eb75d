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

// Package commitment implements the HEAT and Yield domain-tagged
// commitments: commitment = H(tag || factor || payload), verified by
// recomputation. Stateless and idempotent by construction.
package commitment

import (
	"encoding/binary"
	"math"

	"github.com/ColinRitman/cold-l3/internal/coldhash"
)

// CalcHeat computes the HEAT commitment for a u64 domain factor.
func CalcHeat(factor uint64, payload []byte) coldhash.Hash {
	var fb [8]byte
	binary.LittleEndian.PutUint64(fb[:], factor)
	return coldhash.H(coldhash.TagHeat, fb[:], payload)
}

// CalcYield computes the Yield commitment for an f64 domain factor. The
// float is canonicalized via its IEEE-754 bit pattern so the commitment is
// byte-identical across calls and platforms.
func CalcYield(factor float64, payload []byte) coldhash.Hash {
	var fb [8]byte
	binary.LittleEndian.PutUint64(fb[:], math.Float64bits(factor))
	return coldhash.H(coldhash.TagYield, fb[:], payload)
}

// Verify recomputes the commitment for (factor, payload) and compares it
// bytewise against commitment. factor must be a uint64 (HEAT) or float64
// (Yield); any other type reports no match.
func Verify(commitment coldhash.Hash, factor any, payload []byte) bool {
	switch f := factor.(type) {
	case uint64:
		return CalcHeat(f, payload) == commitment
	case float64:
		return CalcYield(f, payload) == commitment
	default:
		return false
	}
}
