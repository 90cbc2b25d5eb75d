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

// Package config loads the node's TOML configuration file the same way
// go-ethereum's cmd/geth config.go loads node.Config: via
// github.com/naoina/toml, with an explicit, commented Config struct
// rather than a dynamically-typed map.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/naoina/toml"

	"github.com/ColinRitman/cold-l3/internal/bft"
	"github.com/ColinRitman/cold-l3/internal/bridge"
	"github.com/ColinRitman/cold-l3/internal/mempool"
	"github.com/ColinRitman/cold-l3/internal/miner"
)

// NodeConfig is the full on-disk TOML shape for cmd/cold-node.
type NodeConfig struct {
	Listen  string
	DataDir string
	RPCAddr string

	Consensus ConsensusConfig
	Mempool   MempoolConfig
	Bridge    BridgeConfig
}

// ConsensusConfig configures the BFT engine and PoW miner.
type ConsensusConfig struct {
	NodeID       uint64
	TotalNodes   uint64
	MinFinality  uint64
	MaxBlockTxs  int
	ViewTimeout  time.Duration
	PowDifficulty uint64
	MaxNonce     uint64
}

// MempoolConfig selects the fee/priority policies by name, mirroring
// the tagged-struct enumerations in internal/mempool.
type MempoolConfig struct {
	MaxSize           int
	EvictLowestOnFull bool

	FeePolicy      string // "simple" | "dynamic" | "priority"
	FeeBase        uint64
	FeeMultiplier  float64
	FeeMultipliers []float64

	PriorityPolicy string // "simple" | "time_based" | "multi_factor"
	PriorityBase   uint64
	PriorityDecay  float64
	FeeWeight      float64
	TimeWeight     float64
	SizeWeight     float64
}

// BridgeConfig configures the Arbitrum relayer.
type BridgeConfig struct {
	Interval      time.Duration
	ProofTimeout  time.Duration
	MaxRetryDelay time.Duration
}

// DefaultNodeConfig mirrors the conservative single-node defaults used
// across the teacher's own default config constructors.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Listen:  "/ip4/0.0.0.0/tcp/4001",
		DataDir: "./data",
		RPCAddr: "127.0.0.1:8545",
		Consensus: ConsensusConfig{
			NodeID:        0,
			TotalNodes:    1,
			MinFinality:   0,
			MaxBlockTxs:   1000,
			ViewTimeout:   30 * time.Second,
			PowDifficulty: 8,
			MaxNonce:      ^uint64(0),
		},
		Mempool: MempoolConfig{
			MaxSize:        10000,
			FeePolicy:      "simple",
			FeeBase:        1,
			PriorityPolicy: "simple",
		},
		Bridge: bridgeDefaults(),
	}
}

func bridgeDefaults() BridgeConfig {
	d := bridge.DefaultConfig()
	return BridgeConfig{Interval: d.Interval, ProofTimeout: d.ProofTimeout, MaxRetryDelay: d.MaxRetryDelay}
}

// LoadNodeConfig reads and decodes a TOML node config file, starting
// from DefaultNodeConfig so unset fields keep their defaults.
func LoadNodeConfig(path string) (NodeConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultNodeConfig()
	if err := decodeTOML(f, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

func decodeTOML(r io.Reader, cfg *NodeConfig) error {
	return toml.NewDecoder(r).Decode(cfg)
}

// BFTConfig builds an internal/bft.Config from the node config.
func (c NodeConfig) BFTConfig() bft.Config {
	return bft.Config{
		NodeID:      c.Consensus.NodeID,
		TotalNodes:  c.Consensus.TotalNodes,
		MinFinality: c.Consensus.MinFinality,
		MaxBlockTxs: c.Consensus.MaxBlockTxs,
		ViewTimeout: c.Consensus.ViewTimeout,
	}
}

// MinerConfig builds an internal/miner.Config from the node config.
func (c NodeConfig) MinerConfig() miner.Config {
	cfg := miner.DefaultConfig()
	if c.Consensus.MaxNonce != 0 {
		cfg.MaxNonce = c.Consensus.MaxNonce
	}
	return cfg
}

// BridgeRelayerConfig builds an internal/bridge.Config from the node
// config.
func (c NodeConfig) BridgeRelayerConfig() bridge.Config {
	return bridge.Config{
		Interval:      c.Bridge.Interval,
		ProofTimeout:  c.Bridge.ProofTimeout,
		MaxRetryDelay: c.Bridge.MaxRetryDelay,
	}
}

// MempoolPoolConfig builds an internal/mempool.Config from the node config,
// resolving the policy name strings into concrete tagged policy values.
func (c NodeConfig) MempoolPoolConfig() (mempool.Config, error) {
	fee, err := c.Mempool.resolveFeePolicy()
	if err != nil {
		return mempool.Config{}, err
	}
	priority, err := c.Mempool.resolvePriorityPolicy()
	if err != nil {
		return mempool.Config{}, err
	}

	return mempool.Config{
		MaxSize:           c.Mempool.MaxSize,
		Fee:               fee,
		Priority:          priority,
		EvictLowestOnFull: c.Mempool.EvictLowestOnFull,
	}, nil
}

func (m MempoolConfig) resolveFeePolicy() (mempool.FeePolicy, error) {
	switch m.FeePolicy {
	case "", "simple":
		return mempool.NewSimpleFeePolicy(m.FeeBase), nil
	case "dynamic":
		return mempool.NewDynamicFeePolicy(m.FeeBase, m.FeeMultiplier), nil
	case "priority":
		return mempool.NewPriorityFeePolicy(m.FeeBase, m.FeeMultipliers), nil
	default:
		return mempool.FeePolicy{}, fmt.Errorf("config: unknown fee policy %q", m.FeePolicy)
	}
}

func (m MempoolConfig) resolvePriorityPolicy() (mempool.PriorityPolicy, error) {
	switch m.PriorityPolicy {
	case "", "simple":
		return mempool.NewSimplePriorityPolicy(), nil
	case "time_based":
		return mempool.NewTimeBasedPriorityPolicy(m.PriorityBase, m.PriorityDecay), nil
	case "multi_factor":
		return mempool.NewMultiFactorPriorityPolicy(m.FeeWeight, m.TimeWeight, m.SizeWeight), nil
	default:
		return mempool.PriorityPolicy{}, fmt.Errorf("config: unknown priority policy %q", m.PriorityPolicy)
	}
}
