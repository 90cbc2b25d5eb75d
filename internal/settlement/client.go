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

// Package settlement defines the boundary the bridge relayer submits
// bridge proofs through, plus a simulated client for standalone
// operation (tunable latency and failure rate, tolerating both
// synchronous and deferred confirmation).
package settlement

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TxStatus mirrors the settlement-chain transaction's lifecycle.
type TxStatus uint8

const (
	StatusPending TxStatus = iota
	StatusConfirmed
	StatusFailed
)

// SubmitResult is the settlement client's response to a proof submission.
type SubmitResult struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Status      TxStatus
	FailReason  string
}

// Client is the boundary the bridge relayer submits bridge proofs
// through.
type Client interface {
	Submit(ctx context.Context, headerHash [32]byte, proof []byte, timestamp uint64) (SubmitResult, error)
}

// SimulatedConfig tunes the Simulated client's observable behavior.
type SimulatedConfig struct {
	Latency     time.Duration
	FailureRate float64 // in [0, 1]
	Deferred    bool    // true: every successful submission reports Pending; Confirmed is never returned
}

// DefaultSimulatedConfig mirrors the 10%-failure simulated relay
// behavior used during local development.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{Latency: 50 * time.Millisecond, FailureRate: 0.1}
}

// Simulated is an in-process settlement client standing in for a real
// Arbitrum RPC endpoint: it fabricates tx hashes via uuid, sleeps for
// Latency, and fails at FailureRate.
type Simulated struct {
	cfg SimulatedConfig

	mu      sync.Mutex
	rng     *rand.Rand
	blockNo uint64
}

// NewSimulated constructs a Simulated client under cfg.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	return &Simulated{cfg: cfg, rng: rand.New(rand.NewSource(1))}
}

// Submit blocks for cfg.Latency (or returns early on ctx cancellation),
// then reports success or a simulated failure at FailureRate.
func (s *Simulated) Submit(ctx context.Context, headerHash [32]byte, proof []byte, timestamp uint64) (SubmitResult, error) {
	select {
	case <-time.After(s.cfg.Latency):
	case <-ctx.Done():
		return SubmitResult{}, ctx.Err()
	}

	s.mu.Lock()
	s.blockNo++
	blockNo := s.blockNo
	roll := s.rng.Float64()
	s.mu.Unlock()

	if roll < s.cfg.FailureRate {
		return SubmitResult{
			Status:     StatusFailed,
			FailReason: "simulated settlement rejection",
		}, fmt.Errorf("settlement: simulated rejection for header %x", headerHash)
	}

	status := StatusConfirmed
	if s.cfg.Deferred {
		status = StatusPending
	}

	return SubmitResult{
		TxHash:      uuid.NewString(),
		BlockNumber: blockNo,
		GasUsed:     21000 + uint64(len(proof))*16,
		Status:      status,
	}, nil
}
