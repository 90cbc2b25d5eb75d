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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/ColinRitman/cold-l3/internal/fuego"
	"github.com/ColinRitman/cold-l3/internal/settlement"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/log"
)

// BridgeStatus names the relayer's own lifecycle, separate from any one
// proof's status.
type BridgeStatus uint8

const (
	BridgeInitializing BridgeStatus = iota
	BridgeRunning
	BridgeStopping
	BridgeStopped
	BridgeError
)

// Stats mirrors the relayer tick's running counters.
type Stats struct {
	Total       uint64
	Successful  uint64
	Failed      uint64
	LastTime    uint64
	AverageTime time.Duration
}

// Config parameterizes the relayer's tick cadence and submission
// timeout.
type Config struct {
	Interval      time.Duration
	ProofTimeout  time.Duration
	MaxRetryDelay time.Duration
}

// DefaultConfig mirrors the spec's default relayer cadence.
func DefaultConfig() Config {
	return Config{
		Interval:      60 * time.Second,
		ProofTimeout:  300 * time.Second,
		MaxRetryDelay: 5 * time.Minute,
	}
}

// Relayer owns the pending/submitted proof tables, verifies headers via
// the Fuego verifier, and submits proofs to the settlement client. Failed
// proofs remain pending and are retried via an exponential backoff
// schedule rather than requiring manual operator intervention.
type Relayer struct {
	cfg      Config
	verifier *fuego.Verifier
	client   settlement.Client

	mu        sync.Mutex
	pending   map[chain.Hash32]Proof
	submitted map[chain.Hash32]Proof
	recovery  *RecoveryStore

	stats Stats

	status   atomic.Int32
	errMsg   string
	errMu    sync.Mutex
	running  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// New constructs a Relayer in the Initializing state.
func New(cfg Config, verifier *fuego.Verifier, client settlement.Client) *Relayer {
	r := &Relayer{
		cfg:       cfg,
		verifier:  verifier,
		client:    client,
		pending:   make(map[chain.Hash32]Proof),
		submitted: make(map[chain.Hash32]Proof),
		done:      make(chan struct{}),
	}
	r.status.Store(int32(BridgeInitializing))
	return r
}

// NewWithRecovery is New plus a leveldb-backed crash-recovery store at
// dir: any proof persisted before an unclean shutdown is replayed into
// the pending table. A replayed proof whose last submission failed is
// retried by the tick loop; one still in ProofPending is not submitted by
// the tick and stays pending until SubmitToArbitrum is called for it.
func NewWithRecovery(cfg Config, verifier *fuego.Verifier, client settlement.Client, dir string) (*Relayer, error) {
	store, err := OpenRecoveryStore(dir)
	if err != nil {
		return nil, err
	}

	r := New(cfg, verifier, client)
	r.recovery = store

	recovered, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	for hash, proof := range recovered {
		r.pending[hash] = proof
	}
	if len(recovered) > 0 {
		log.Info("bridge relayer recovered pending proofs", "count", len(recovered))
	}

	return r, nil
}

// Close releases the recovery store, if one is attached.
func (r *Relayer) Close() error {
	if r.recovery == nil {
		return nil
	}
	return r.recovery.Close()
}

// Status reports the relayer's lifecycle state and, if BridgeError, the
// associated message.
func (r *Relayer) Status() (BridgeStatus, string) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return BridgeStatus(r.status.Load()), r.errMsg
}

func (r *Relayer) setStatus(s BridgeStatus) {
	r.status.Store(int32(s))
}

func (r *Relayer) setError(msg string) {
	r.errMu.Lock()
	r.errMsg = msg
	r.errMu.Unlock()
	r.setStatus(BridgeError)
}

// CreateBridgeProof verifies block.Header (delegating to the Fuego
// verifier) and, on success, records a Pending entry keyed by header
// hash.
func (r *Relayer) CreateBridgeProof(block chain.Block) (Proof, error) {
	result := r.verifier.Verify(block.Header)
	if !result.IsValid {
		return Proof{}, ErrInvalidHeader
	}

	proof := newPendingProof(block.Header, uint32(len(block.Transactions)), time.Now())
	hash := block.Header.Hash()

	r.mu.Lock()
	r.pending[hash] = proof
	r.mu.Unlock()

	if r.recovery != nil {
		if err := r.recovery.Save(hash, proof); err != nil {
			log.Warn("bridge proof recovery save failed", "hash", hash, "err", err)
		}
	}

	return proof, nil
}

// SubmitToArbitrum submits proof to the settlement client and tolerates
// either a synchronous or a deferred confirmation (spec §6): on a
// Confirmed result the entry moves to submitted as ProofConfirmed; on a
// Pending result it still moves to submitted, but as ProofSubmitted, for
// pollSubmittedProofs to reconcile on a later tick. On failure (returned
// error, or a Failed result) the Pending entry is retained for retry and
// the failure counter advances.
func (r *Relayer) SubmitToArbitrum(ctx context.Context, proof Proof) error {
	hash := proof.Header.Hash()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProofTimeout)
	defer cancel()

	result, err := r.client.Submit(ctx, hash, proof.ArbitrumData, proof.SubmittedAt)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil || result.Status == settlement.StatusFailed {
		reason := result.FailReason
		if err != nil {
			reason = err.Error()
		}
		r.stats.Failed++
		if p, ok := r.pending[hash]; ok {
			p.Status = ProofFailed
			p.FailReason = reason
			r.pending[hash] = p
			if r.recovery != nil {
				if saveErr := r.recovery.Save(hash, p); saveErr != nil {
					log.Warn("bridge proof recovery save failed", "hash", hash, "err", saveErr)
				}
			}
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("settlement: submission failed: %s", reason)
	}

	if result.Status == settlement.StatusConfirmed {
		proof.Status = ProofConfirmed
	} else {
		proof.Status = ProofSubmitted
	}
	delete(r.pending, hash)
	r.submitted[hash] = proof

	r.stats.Successful++
	r.stats.Total++
	now := uint64(time.Now().Unix())
	r.stats.LastTime = now
	elapsed := time.Duration(0)
	if now > proof.SubmittedAt {
		elapsed = time.Duration(now-proof.SubmittedAt) * time.Second
	}
	r.stats.AverageTime += (elapsed - r.stats.AverageTime) / time.Duration(r.stats.Successful)

	if r.recovery != nil {
		if delErr := r.recovery.Delete(hash); delErr != nil {
			log.Warn("bridge proof recovery delete failed", "hash", hash, "err", delErr)
		}
	}

	return nil
}

// pollSubmittedProofs re-submits every proof still awaiting confirmation
// (status ProofSubmitted, i.e. the settlement client previously returned
// Pending) and promotes it to ProofConfirmed once the client reports
// Confirmed — the tick-loop side of spec §6's "tolerate deferred
// confirmation" requirement.
func (r *Relayer) pollSubmittedProofs() {
	r.mu.Lock()
	awaiting := make([]Proof, 0)
	for _, p := range r.submitted {
		if p.Status == ProofSubmitted {
			awaiting = append(awaiting, p)
		}
	}
	r.mu.Unlock()

	for _, p := range awaiting {
		hash := p.Header.Hash()
		result, err := r.client.Submit(context.Background(), hash, p.ArbitrumData, p.SubmittedAt)
		if err != nil || result.Status != settlement.StatusConfirmed {
			continue
		}

		r.mu.Lock()
		if cur, ok := r.submitted[hash]; ok && cur.Status == ProofSubmitted {
			cur.Status = ProofConfirmed
			r.submitted[hash] = cur
		}
		r.mu.Unlock()

		log.Debug("bridge proof confirmed", "hash", hash)
	}
}

// SubmittedProof returns the submitted-table entry for hash (its current
// Submitted/Confirmed status), if present.
func (r *Relayer) SubmittedProof(hash chain.Hash32) (Proof, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.submitted[hash]
	return p, ok
}

// PendingCount and SubmittedCount support the disjointness testable
// property (submitted ⇒ not pending).
func (r *Relayer) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Relayer) SubmittedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submitted)
}

// StatsSnapshot returns a copy of the running counters.
func (r *Relayer) StatsSnapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Start transitions Initializing -> Running and launches the tick loop.
func (r *Relayer) Start() {
	r.setStatus(BridgeRunning)
	r.running.Store(true)
	go r.tickLoop()
	log.Info("bridge relayer started", "interval", r.cfg.Interval)
}

// Stop transitions Running -> Stopping -> Stopped. Cooperative: the next
// tick observing running==false exits.
func (r *Relayer) Stop() {
	r.stopOnce.Do(func() {
		r.setStatus(BridgeStopping)
		r.running.Store(false)
		close(r.done)
		r.setStatus(BridgeStopped)
		log.Info("bridge relayer stopped")
	})
}

// tickLoop performs one relay unit per Interval: retry every currently
// Failed pending proof via exponential backoff, then resubmit. Individual
// failures are counted but never stop the loop.
func (r *Relayer) tickLoop() {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if !r.running.Load() {
				return
			}
			r.retryFailedProofs()
			r.pollSubmittedProofs()
		}
	}
}

// retryFailedProofs resubmits every pending proof whose status is
// ProofFailed, each under its own exponential backoff schedule capped at
// MaxRetryDelay.
func (r *Relayer) retryFailedProofs() {
	r.mu.Lock()
	failed := make([]Proof, 0)
	for _, p := range r.pending {
		if p.Status == ProofFailed {
			failed = append(failed, p)
		}
	}
	r.mu.Unlock()

	for _, p := range failed {
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = r.cfg.MaxRetryDelay

		err := backoff.Retry(func() error {
			return r.SubmitToArbitrum(context.Background(), p)
		}, bo)

		if err != nil {
			log.Warn("bridge retry exhausted", "hash", p.Header.Hash(), "err", err)
		}
	}
}
