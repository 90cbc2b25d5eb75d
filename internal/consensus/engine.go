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

// Package consensus composes the mempool, miner and BFT engine into the
// node's top-level block proposer: a Starting/Running/Stopping/Stopped
// (with a reachable Error state) actor driven by a bounded message
// channel.
package consensus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ColinRitman/cold-l3/internal/bft"
	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/ColinRitman/cold-l3/internal/coldhash"
	"github.com/ColinRitman/cold-l3/internal/mempool"
	"github.com/ColinRitman/cold-l3/internal/miner"
	"github.com/ethereum/go-ethereum/log"
)

// Status is the engine's lifecycle state.
type Status uint8

const (
	StatusStarting Status = iota
	StatusRunning
	StatusStopping
	StatusStopped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "Starting"
	case StatusRunning:
		return "Running"
	case StatusStopping:
		return "Stopping"
	case StatusStopped:
		return "Stopped"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

var (
	ErrNotRunning = errors.New("consensus: engine is not in the Running state")
)

// messageKind tags the internal actor-mailbox message.
type messageKind uint8

const (
	msgBlockFinalized messageKind = iota
	msgBlockRejected
	msgConsensusError
)

type message struct {
	kind   messageKind
	block  chain.Block
	hash   chain.Hash32
	reason string
}

const mailboxCapacity = 1000

// Config parameterizes the engine and its owned subsystems.
type Config struct {
	PowDifficulty uint64
	BFT           bft.Config
	Miner         miner.Config
}

// Engine composes the mempool, miner and BFT engine, owning the
// finalized-blocks log and the node's lifecycle state.
type Engine struct {
	cfg Config

	pool  *mempool.Pool
	miner *miner.Miner
	bft   *bft.Engine

	mailbox chan message

	mu              sync.RWMutex
	status          Status
	errMsg          string
	finalizedBlocks []chain.Block
	latestFinalized chain.Hash32

	stopOnce sync.Once
	done     chan struct{}
}

// New constructs an Engine in the Starting state, wired to pool and a
// fresh BFT/miner pair derived from cfg.
func New(cfg Config, pool *mempool.Pool) *Engine {
	e := &Engine{
		cfg:     cfg,
		pool:    pool,
		miner:   miner.New(cfg.Miner),
		bft:     bft.New(cfg.BFT),
		mailbox: make(chan message, mailboxCapacity),
		status:  StatusStarting,
		done:    make(chan struct{}),
	}
	return e
}

// Start transitions Starting -> Running and launches the mailbox drain
// loop and the BFT finality bridge.
func (e *Engine) Start() {
	e.mu.Lock()
	e.status = StatusRunning
	e.mu.Unlock()

	e.bft.Start()
	go e.drainFinality()
	go e.drainMailbox()

	log.Info("consensus engine started", "nodeID", e.cfg.BFT.NodeID)
}

// drainFinality forwards BFT finality notifications into the mailbox.
func (e *Engine) drainFinality() {
	for {
		select {
		case block, ok := <-e.bft.Finalized():
			if !ok {
				return
			}
			e.post(message{kind: msgBlockFinalized, block: block, hash: block.Header.Hash()})
		case <-e.done:
			return
		}
	}
}

// drainMailbox is the actor loop: messages are processed strictly FIFO
// from the bounded channel.
func (e *Engine) drainMailbox() {
	for {
		select {
		case msg := <-e.mailbox:
			e.handle(msg)
		case <-e.done:
			return
		}
	}
}

func (e *Engine) handle(msg message) {
	switch msg.kind {
	case msgBlockFinalized:
		e.mu.Lock()
		e.finalizedBlocks = append(e.finalizedBlocks, msg.block)
		e.latestFinalized = msg.hash
		e.mu.Unlock()
		log.Info("block finalized", "hash", msg.hash, "height", msg.block.Header.Height)
	case msgBlockRejected:
		log.Warn("block rejected", "hash", msg.hash, "reason", msg.reason)
	case msgConsensusError:
		e.mu.Lock()
		e.status = StatusError
		e.errMsg = msg.reason
		e.mu.Unlock()
		log.Error("consensus engine entering error state", "reason", msg.reason)
	}
}

// post enqueues msg, logging and dropping it if the mailbox is full
// rather than blocking the caller (mirrors bft.Engine's
// never-block-the-caller posture for its saturated finalized channel).
func (e *Engine) post(msg message) {
	select {
	case e.mailbox <- msg:
	default:
		log.Warn("consensus mailbox full, dropping message", "kind", msg.kind)
	}
}

// ReportError pushes the engine into the Error state from any external
// detector (e.g. a failed header verification upstream).
func (e *Engine) ReportError(reason string) {
	e.post(message{kind: msgConsensusError, reason: reason})
}

// Status returns the engine's current lifecycle state and, if Error, the
// associated message.
func (e *Engine) Status() (Status, string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status, e.errMsg
}

// ProposeBlock builds a header from the mempool's next batch and pushes
// it through the BFT engine. Rejected outside the Running state.
func (e *Engine) ProposeBlock(maxTxs int) (chain.Block, error) {
	e.mu.RLock()
	status := e.status
	latest := e.latestFinalized
	height := uint64(len(e.finalizedBlocks))
	e.mu.RUnlock()

	if status != StatusRunning {
		return chain.Block{}, ErrNotRunning
	}

	txs := e.pool.Take(maxTxs)
	leaves := make([]chain.Hash32, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.Hash
	}

	header := chain.BlockHeader{
		Height:     height,
		PrevHash:   latest,
		MerkleRoot: coldhash.Merkle(leaves),
		Difficulty: e.cfg.PowDifficulty,
	}

	result, err := e.miner.Mine(header, e.done)
	if err != nil {
		return chain.Block{}, fmt.Errorf("consensus: mining failed: %w", err)
	}
	header = result.Header
	log.Info("block mined", "height", header.Height, "nonce", header.Nonce, "attempts", result.Attempts, "hashRate", result.HashRate)

	block := chain.Block{Header: header, Transactions: txs}

	if err := e.bft.Propose(block); err != nil {
		e.post(message{kind: msgBlockRejected, hash: header.Hash(), reason: err.Error()})
		return chain.Block{}, fmt.Errorf("consensus: propose rejected: %w", err)
	}

	return block, nil
}

// CurrentView returns the underlying BFT engine's current view number, for
// instrumentation.
func (e *Engine) CurrentView() uint64 {
	return e.bft.CurrentView()
}

// MempoolStats returns the underlying mempool's current occupancy, for
// instrumentation.
func (e *Engine) MempoolStats() mempool.Stats {
	return e.pool.Stats()
}

// FinalizedBlocks returns a snapshot of the finalized-blocks log.
func (e *Engine) FinalizedBlocks() []chain.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]chain.Block, len(e.finalizedBlocks))
	copy(out, e.finalizedBlocks)
	return out
}

// Stop transitions Running -> Stopping -> Stopped, idempotently.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.status = StatusStopping
		e.mu.Unlock()

		close(e.done)
		e.bft.Stop()

		e.mu.Lock()
		e.status = StatusStopped
		e.mu.Unlock()

		log.Info("consensus engine stopped")
	})
}
