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

// Package mempool implements the bounded, priority-ordered, deduplicated
// transaction pool described by the consensus engine's block proposer.
package mempool

import (
	"container/heap"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrPoolFull  = errors.New("mempool: pool is full")
	ErrInvalid   = errors.New("mempool: transaction is invalid")
	ErrDuplicate = errors.New("mempool: duplicate transaction")
	ErrNotFound  = errors.New("mempool: transaction not found")
)

const shardCount = 16

// shard is one lock-guarded partition of the hash-keyed transaction set.
// Readers (has/load) don't exclude each other; a shard's own RWMutex only
// serializes against writers on that shard.
type shard struct {
	mu  sync.RWMutex
	txs map[chain.Hash32]chain.Transaction
}

func shardFor(h chain.Hash32) uint32 {
	f := fnv.New32a()
	f.Write(h[:])
	return f.Sum32() % shardCount
}

// Config tunes pool capacity and policy selection.
type Config struct {
	MaxSize  int
	Fee      FeePolicy
	Priority PriorityPolicy
	// EvictLowestOnFull opts into evicting the lowest-priority entry to make
	// room for an incoming higher-priority one, instead of the default
	// PoolFull rejection. Must be set explicitly; never the default.
	EvictLowestOnFull bool
}

// Stats reports pool occupancy.
type Stats struct {
	Count       int
	Max         int
	Utilization float64
}

// Pool is the concurrent, bounded, priority-ordered mempool.
type Pool struct {
	cfg Config

	shards [shardCount]*shard

	// queueMu serializes add/remove against the priority queue; take takes
	// it for the duration of its snapshot-and-reinsert.
	queueMu sync.Mutex
	queue   priorityQueue
	index   map[chain.Hash32]*pqItem

	count int64 // atomic-free: only mutated under queueMu
}

// New creates an empty pool under cfg.
func New(cfg Config) *Pool {
	p := &Pool{cfg: cfg, index: make(map[chain.Hash32]*pqItem)}
	for i := range p.shards {
		p.shards[i] = &shard{txs: make(map[chain.Hash32]chain.Transaction)}
	}
	heap.Init(&p.queue)
	return p
}

func (p *Pool) has(h chain.Hash32) bool {
	s := p.shards[shardFor(h)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.txs[h]
	return ok
}

func (p *Pool) store(tx chain.Transaction) {
	s := p.shards[shardFor(tx.Hash)]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.Hash] = tx
}

func (p *Pool) load(h chain.Hash32) (chain.Transaction, bool) {
	s := p.shards[shardFor(h)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[h]
	return tx, ok
}

func (p *Pool) drop(h chain.Hash32) {
	s := p.shards[shardFor(h)]
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.txs, h)
}

// Add validates and inserts tx, atomically updating both the dedup map and
// the priority queue. Rejects fee==0, empty inputs/outputs, duplicate
// hashes, and fees below the fee policy's requirement.
func (p *Pool) Add(tx chain.Transaction) error {
	if tx.Fee == 0 {
		return ErrInvalid
	}
	if err := tx.WellFormed(); err != nil {
		return ErrInvalid
	}
	if p.has(tx.Hash) {
		return ErrDuplicate
	}
	if tx.Fee < p.cfg.Fee.Calculate(tx) {
		return ErrInvalid
	}

	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	if int(p.count) >= p.cfg.MaxSize {
		if !p.cfg.EvictLowestOnFull {
			return ErrPoolFull
		}
		if p.queue.Len() == 0 {
			return ErrPoolFull
		}
		// The queue is a max-heap, so the lowest entry is found by scanning.
		lowest := p.queue[0]
		for _, it := range p.queue[1:] {
			if it.priority < lowest.priority {
				lowest = it
			}
		}
		if lowest.priority >= p.cfg.Priority.Priority(tx, time.Now()) {
			return ErrPoolFull
		}
		heap.Remove(&p.queue, lowest.index)
		delete(p.index, lowest.hash)
		p.drop(lowest.hash)
		p.count--
		log.Debug("mempool evicted lowest-priority tx", "hash", lowest.hash)
	}

	priority := p.cfg.Priority.Priority(tx, time.Now())
	p.store(tx)
	item := &pqItem{hash: tx.Hash, priority: priority}
	heap.Push(&p.queue, item)
	p.index[tx.Hash] = item
	p.count++

	return nil
}

// Take returns up to limit transactions in priority order without removing
// them: observing a transaction re-enqueues it at its current priority, so
// repeated Take calls are not required to return the same order. Callers
// that want removal call Remove explicitly on confirmation.
func (p *Pool) Take(limit int) []chain.Transaction {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	out := make([]chain.Transaction, 0, limit)
	popped := make([]*pqItem, 0, limit)

	for len(out) < limit && p.queue.Len() > 0 {
		item := heap.Pop(&p.queue).(*pqItem)
		tx, ok := p.load(item.hash)
		if !ok {
			delete(p.index, item.hash)
			continue
		}
		out = append(out, tx)
		popped = append(popped, item)
	}

	now := time.Now()
	for _, item := range popped {
		tx, ok := p.load(item.hash)
		if !ok {
			continue
		}
		item.priority = p.cfg.Priority.Priority(tx, now)
		heap.Push(&p.queue, item)
		p.index[item.hash] = item
	}

	return out
}

// Remove deletes tx (by hash) from both the dedup map and the priority
// queue.
func (p *Pool) Remove(h chain.Hash32) error {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	item, ok := p.index[h]
	if !ok {
		return ErrNotFound
	}
	heap.Remove(&p.queue, item.index)
	delete(p.index, h)
	p.drop(h)
	p.count--
	return nil
}

// Clear empties the pool.
func (p *Pool) Clear() {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	for i := range p.shards {
		p.shards[i].mu.Lock()
		p.shards[i].txs = make(map[chain.Hash32]chain.Transaction)
		p.shards[i].mu.Unlock()
	}
	p.queue = p.queue[:0]
	p.index = make(map[chain.Hash32]*pqItem)
	p.count = 0
}

// Stats reports current occupancy.
func (p *Pool) Stats() Stats {
	p.queueMu.Lock()
	count := int(p.count)
	p.queueMu.Unlock()

	util := 0.0
	if p.cfg.MaxSize > 0 {
		util = float64(count) / float64(p.cfg.MaxSize)
	}
	return Stats{Count: count, Max: p.cfg.MaxSize, Utilization: util}
}
