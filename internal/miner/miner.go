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

// Package miner implements the PoW sealing loop that merge-mines COLD L3
// blocks: nonce search against a leading-zero-bits difficulty target, with
// periodic hash-rate reporting and a cooperative stop channel.
package miner

import (
	"errors"
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// ErrMaxNonceReached is returned when the nonce space is exhausted without
// finding a hash that satisfies the target difficulty.
var ErrMaxNonceReached = errors.New("miner: max nonce reached without solution")

// ErrStopped is returned when the stop channel fires mid-search.
var ErrStopped = errors.New("miner: mining stopped")

// Config tunes the search.
type Config struct {
	MaxNonce uint64
	// HashRateSampleEvery controls how often (in hash attempts) the hash
	// rate is recomputed and reported; 0 disables periodic reporting.
	HashRateSampleEvery uint64
}

// DefaultConfig mirrors the conservative defaults used for merge mining.
func DefaultConfig() Config {
	return Config{MaxNonce: ^uint64(0), HashRateSampleEvery: 1000}
}

// Result reports a solved block's search statistics.
type Result struct {
	Header   chain.BlockHeader
	Hash     chain.Hash32
	Nonce    uint64
	Attempts uint64
	Duration time.Duration
	HashRate uint64
}

// Miner searches for a nonce on header such that Hash() satisfies
// difficulty leading zero bits.
type Miner struct {
	cfg Config
}

// New constructs a Miner under cfg.
func New(cfg Config) *Miner {
	if cfg.MaxNonce == 0 {
		cfg.MaxNonce = ^uint64(0)
	}
	return &Miner{cfg: cfg}
}

var maxTarget = new(uint256.Int).Not(uint256.NewInt(0))

// DifficultyToTarget converts a leading-zero-bits difficulty into the
// equivalent uint256 threshold: a hash interpreted as a big-endian 256-bit
// number meets the difficulty iff it is <= this target, the same
// target-comparison shape used by Bitcoin/ethash-style PoW.
func DifficultyToTarget(difficulty uint64) *uint256.Int {
	if difficulty >= 256 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Rsh(maxTarget, uint(difficulty))
}

// HashMeetsTarget reports whether h, read as a big-endian uint256, is at
// most target.
func HashMeetsTarget(h chain.Hash32, target *uint256.Int) bool {
	hv := new(uint256.Int).SetBytes32(h[:])
	return hv.Cmp(target) <= 0
}

// MeetsDifficulty reports whether h has at least difficulty leading zero
// bits, checked via the equivalent uint256 target comparison.
func MeetsDifficulty(h chain.Hash32, difficulty uint64) bool {
	return HashMeetsTarget(h, DifficultyToTarget(difficulty))
}

// Mine searches nonces starting from 0 (header.Nonce is ignored) until a
// hash meeting header.Difficulty is found, the nonce space is exhausted, or
// stop is closed. header.Timestamp is stamped with now() before the search
// begins, matching merge-mining's freshest-timestamp convention.
func (m *Miner) Mine(header chain.BlockHeader, stop <-chan struct{}) (Result, error) {
	header.Timestamp = uint64(time.Now().Unix())
	start := time.Now()

	var attempts uint64
	var hashRate uint64
	target := DifficultyToTarget(header.Difficulty)

	for nonce := uint64(0); nonce < m.cfg.MaxNonce; nonce++ {
		select {
		case <-stop:
			return Result{}, ErrStopped
		default:
		}

		header.Nonce = nonce
		h := header.Hash()
		attempts++

		if m.cfg.HashRateSampleEvery > 0 && attempts%m.cfg.HashRateSampleEvery == 0 {
			elapsed := time.Since(start).Seconds()
			if elapsed > 0 {
				hashRate = uint64(float64(attempts) / elapsed)
			}
			log.Debug("miner hash rate sample", "attempts", attempts, "hashRate", hashRate)
		}

		if HashMeetsTarget(h, target) {
			duration := time.Since(start)
			if duration.Seconds() > 0 {
				hashRate = uint64(float64(attempts) / duration.Seconds())
			}
			return Result{
				Header:   header,
				Hash:     h,
				Nonce:    nonce,
				Attempts: attempts,
				Duration: duration,
				HashRate: hashRate,
			}, nil
		}
	}

	return Result{}, ErrMaxNonceReached
}
