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

// Package fuego implements the stateless upstream header verifier the
// bridge relayer delegates to: a side-effect-free oracle whose results
// are memoized by header hash.
package fuego

import (
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/VictoriaMetrics/fastcache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Result is the outcome of one verification call.
type Result struct {
	IsValid bool
	Elapsed time.Duration
	Error   string
}

const cacheSizeBytes = 32 * 1024 * 1024

// Verifier memoizes BlockHeader.Verify results by header hash in a
// bounded cache, with singleflight collapsing concurrent callers
// verifying the same never-before-seen header into one computation.
type Verifier struct {
	cache *fastcache.Cache
	group singleflight.Group
}

// New constructs a Verifier with a 32MiB memoization cache.
func New() *Verifier {
	return &Verifier{cache: fastcache.New(cacheSizeBytes)}
}

// Verify checks header against the data-model invariants (section 4.I):
// height==0 implies zero prev_hash, timestamp within now+3600s, and a
// nonzero difficulty. Results are memoized by header hash.
func (v *Verifier) Verify(header chain.BlockHeader) Result {
	hash := header.Hash()

	if cached, ok := v.cache.HasGet(nil, hash[:]); ok {
		return decodeResult(cached)
	}

	res, _, _ := v.group.Do(string(hash[:]), func() (any, error) {
		// Re-check the cache: another goroutine may have populated it
		// while we waited to enter the singleflight critical section.
		if cached, ok := v.cache.HasGet(nil, hash[:]); ok {
			return decodeResult(cached), nil
		}

		start := time.Now()
		err := header.Verify(time.Now())
		result := Result{
			IsValid: err == nil,
			Elapsed: time.Since(start),
		}
		if err != nil {
			result.Error = err.Error()
		}

		v.cache.Set(hash[:], encodeResult(result))
		return result, nil
	})

	return res.(Result)
}

// VerifyHeaders verifies a batch of headers concurrently, one goroutine
// per header, fanning out through errgroup. The result slice is indexed
// identically to headers; order is preserved even though verification
// itself is unordered.
func (v *Verifier) VerifyHeaders(headers []chain.BlockHeader) []Result {
	results := make([]Result, len(headers))

	var g errgroup.Group
	for i, header := range headers {
		i, header := i, header
		g.Go(func() error {
			results[i] = v.Verify(header)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// encodeResult/decodeResult give fastcache a flat byte value: 1 byte for
// IsValid, 8 bytes for Elapsed (nanoseconds), then the error string.
func encodeResult(r Result) []byte {
	buf := make([]byte, 9+len(r.Error))
	if r.IsValid {
		buf[0] = 1
	}
	ns := uint64(r.Elapsed.Nanoseconds())
	for i := 0; i < 8; i++ {
		buf[1+i] = byte(ns >> (8 * i))
	}
	copy(buf[9:], r.Error)
	return buf
}

func decodeResult(buf []byte) Result {
	if len(buf) < 9 {
		return Result{}
	}
	var ns uint64
	for i := 0; i < 8; i++ {
		ns |= uint64(buf[1+i]) << (8 * i)
	}
	return Result{
		IsValid: buf[0] == 1,
		Elapsed: time.Duration(ns),
		Error:   string(buf[9:]),
	}
}
