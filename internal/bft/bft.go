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

// Package bft implements the three-phase (pre-prepare, prepare, commit)
// block finalization protocol: a rotating leader proposes, the remaining
// nodes' votes are counted against a minimum finality threshold, and a
// block that clears both phases is committed.
package bft

import (
	"errors"
	"sync"
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrNotLeader          = errors.New("bft: node is not the current view's leader")
	ErrInsufficientVotes  = errors.New("bft: insufficient votes for finality threshold")
	ErrBlockTooLarge      = errors.New("bft: block exceeds max transactions per block")
	ErrAlreadyCommitted   = errors.New("bft: block already committed")
	ErrUnknownBlock       = errors.New("bft: block not known to this engine")
	ErrBlockBeforeView    = errors.New("bft: block timestamp precedes the current view's start")
)

// DefaultViewTimeout is the view-rotation period used when Config.ViewTimeout
// is left at its zero value.
const DefaultViewTimeout = 30 * time.Second

// Phase names a step in the three-phase protocol.
type Phase uint8

const (
	PhasePrePrepare Phase = iota
	PhasePrepare
	PhaseCommit
	PhaseFinalized
)

// Config parameterizes one node's participation in the protocol.
type Config struct {
	NodeID      uint64
	TotalNodes  uint64
	MinFinality uint64
	MaxBlockTxs int
	ViewTimeout time.Duration
}

// View carries the protocol's current-view bookkeeping: its number, the
// node leading it, and the instant it began (used both for leader rotation
// liveness and to reject stale-timestamped proposals).
type View struct {
	Number uint64
	Leader uint64
	Start  time.Time
}

// Engine runs the three-phase protocol for a single node, tracking
// pending/prepared/committed blocks by hash.
type Engine struct {
	cfg Config

	mu   sync.RWMutex
	view View

	pending   map[chain.Hash32]chain.Block
	prepared  map[chain.Hash32]chain.Block
	committed map[chain.Hash32]chain.Block

	finalized chan chain.Block

	done     chan struct{}
	stopOnce sync.Once
}

// New constructs an Engine at view 0.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:       cfg,
		view:      View{Number: 0, Leader: 0, Start: time.Now()},
		pending:   make(map[chain.Hash32]chain.Block),
		prepared:  make(map[chain.Hash32]chain.Block),
		committed: make(map[chain.Hash32]chain.Block),
		finalized: make(chan chain.Block, 1000),
		done:      make(chan struct{}),
	}
}

// Start launches the view-rotation ticker, mirrored on the teacher's
// blockProductionLoop's time.NewTicker pattern: every ViewTimeout (30s by
// default), the view advances regardless of whether a block is in flight,
// so a failed leader cannot stall liveness.
func (e *Engine) Start() {
	go e.viewRotationLoop()
}

// Stop halts the view-rotation ticker. Idempotent.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
	})
}

func (e *Engine) viewRotationLoop() {
	timeout := e.cfg.ViewTimeout
	if timeout <= 0 {
		timeout = DefaultViewTimeout
	}
	ticker := time.NewTicker(timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.AdvanceView()
		case <-e.done:
			return
		}
	}
}

// CurrentView returns the engine's current view number.
func (e *Engine) CurrentView() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view.Number
}

// CurrentLeader returns the node ID leading the current view, round-robin
// over TotalNodes.
func (e *Engine) CurrentLeader() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view.Leader
}

// ViewStart returns the instant the current view began.
func (e *Engine) ViewStart() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view.Start
}

// AdvanceView moves to the next view, rotating the leader, resetting the
// view's start instant, and dropping any blocks left in pending: their
// view was abandoned, and it is the proposer's responsibility to
// re-propose in the new one. Called both by the rotation ticker on
// timeout and, for tests, directly.
func (e *Engine) AdvanceView() {
	e.mu.Lock()
	e.view.Number++
	e.view.Leader = e.view.Number % e.cfg.TotalNodes
	e.view.Start = time.Now()
	dropped := len(e.pending)
	e.pending = make(map[chain.Hash32]chain.Block)
	number, leader := e.view.Number, e.view.Leader
	e.mu.Unlock()

	log.Debug("bft view advanced", "view", number, "leader", leader, "droppedPending", dropped)
}

// Finalized returns the channel on which committed blocks are published.
func (e *Engine) Finalized() <-chan chain.Block {
	return e.finalized
}

// votingPeers is the number of nodes whose votes count toward a phase's
// threshold: every node except the proposing leader.
func (e *Engine) votingPeers() uint64 {
	if e.cfg.TotalNodes == 0 {
		return 0
	}
	return e.cfg.TotalNodes - 1
}

// Propose runs a block through pre-prepare, prepare and commit. Only the
// current view's leader may propose. Returns ErrInsufficientVotes if
// either phase's simulated vote count falls short of MinFinality.
func (e *Engine) Propose(block chain.Block) error {
	if e.cfg.NodeID != e.CurrentLeader() {
		return ErrNotLeader
	}
	if e.cfg.MaxBlockTxs > 0 && len(block.Transactions) > e.cfg.MaxBlockTxs {
		return ErrBlockTooLarge
	}
	if block.Header.Timestamp < uint64(e.ViewStart().Unix()) {
		return ErrBlockBeforeView
	}

	hash := block.Header.Hash()

	e.mu.Lock()
	e.pending[hash] = block
	e.mu.Unlock()
	e.prePrepare(block, hash)

	if err := e.prepare(block, hash); err != nil {
		return err
	}
	if err := e.commit(block, hash); err != nil {
		return err
	}

	select {
	case e.finalized <- block:
	default:
		log.Warn("bft finalized channel full, dropping notification", "hash", hash)
	}

	return nil
}

func (e *Engine) prePrepare(block chain.Block, hash chain.Hash32) {
	log.Debug("bft pre-prepare", "hash", hash, "view", e.CurrentView())
}

// prepare counts the simulated prepare votes (every non-leader node) and,
// if they clear MinFinality, moves the block into the prepared set.
func (e *Engine) prepare(block chain.Block, hash chain.Hash32) error {
	votes := e.votingPeers()
	if votes < e.cfg.MinFinality {
		return ErrInsufficientVotes
	}

	e.mu.Lock()
	e.prepared[hash] = block
	delete(e.pending, hash)
	e.mu.Unlock()

	log.Debug("bft prepare phase complete", "hash", hash, "votes", votes)
	return nil
}

// commit mirrors prepare for the commit phase, moving the block into the
// committed set on success.
func (e *Engine) commit(block chain.Block, hash chain.Hash32) error {
	votes := e.votingPeers()
	if votes < e.cfg.MinFinality {
		return ErrInsufficientVotes
	}

	e.mu.Lock()
	if _, ok := e.committed[hash]; ok {
		e.mu.Unlock()
		return ErrAlreadyCommitted
	}
	e.committed[hash] = block
	delete(e.prepared, hash)
	delete(e.pending, hash)
	e.mu.Unlock()

	log.Debug("bft commit phase complete", "hash", hash, "votes", votes)
	return nil
}

// IsCommitted reports whether hash has reached the committed set.
func (e *Engine) IsCommitted(hash chain.Hash32) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.committed[hash]
	return ok
}

// Counts reports the size of the pending/prepared/committed sets, mainly
// for tests and diagnostics.
func (e *Engine) Counts() (pending, prepared, committed int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pending), len(e.prepared), len(e.committed)
}
