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

// Package blocksync defines the upstream parser boundary: the core never
// decodes upstream bytes directly, it only calls through this interface.
package blocksync

import (
	"context"
	"errors"
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
)

// ErrNotFound is returned by lookups that found no matching block.
var ErrNotFound = errors.New("blocksync: block not found")

// UpstreamParser is the boundary between the core and the Fuego chain's
// wire format. Implementations own all decoding; the core only ever sees
// chain.Block values.
type UpstreamParser interface {
	GetBlockByHeight(ctx context.Context, height uint64) (chain.Block, error)
	GetBlockByHash(ctx context.Context, hash chain.Hash32) (chain.Block, error)
	ParseBlockData(data []byte) (chain.Block, error)
	ValidateBlock(b chain.Block) bool
}

// MemoryParser is an in-process UpstreamParser backed by a fixed map,
// useful for tests and for driving the node against a local fixture
// chain without a real upstream connection.
type MemoryParser struct {
	byHeight map[uint64]chain.Block
	byHash   map[chain.Hash32]chain.Block
}

// NewMemoryParser builds a MemoryParser indexing blocks by both height
// and header hash.
func NewMemoryParser(blocks []chain.Block) *MemoryParser {
	p := &MemoryParser{
		byHeight: make(map[uint64]chain.Block, len(blocks)),
		byHash:   make(map[chain.Hash32]chain.Block, len(blocks)),
	}
	for _, b := range blocks {
		p.byHeight[b.Header.Height] = b
		p.byHash[b.Header.Hash()] = b
	}
	return p
}

func (p *MemoryParser) GetBlockByHeight(_ context.Context, height uint64) (chain.Block, error) {
	b, ok := p.byHeight[height]
	if !ok {
		return chain.Block{}, ErrNotFound
	}
	return b, nil
}

func (p *MemoryParser) GetBlockByHash(_ context.Context, hash chain.Hash32) (chain.Block, error) {
	b, ok := p.byHash[hash]
	if !ok {
		return chain.Block{}, ErrNotFound
	}
	return b, nil
}

// ParseBlockData is unsupported on MemoryParser: it holds pre-decoded
// blocks, not raw wire bytes.
func (p *MemoryParser) ParseBlockData(data []byte) (chain.Block, error) {
	return chain.Block{}, errors.New("blocksync: MemoryParser does not decode raw bytes")
}

func (p *MemoryParser) ValidateBlock(b chain.Block) bool {
	return b.Verify(time.Now()) == nil
}
