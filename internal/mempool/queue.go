// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package mempool

import "github.com/ColinRitman/cold-l3/internal/chain"

// pqItem is one entry in the priority queue. index is maintained by
// container/heap so Remove can locate an arbitrary entry in O(log n).
type pqItem struct {
	hash     chain.Hash32
	priority uint64
	index    int
}

// priorityQueue is a max-heap over pqItem.priority.
type priorityQueue []*pqItem

func (q priorityQueue) Len() int { return len(q) }

func (q priorityQueue) Less(i, j int) bool {
	return q[i].priority > q[j].priority
}

func (q priorityQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}
