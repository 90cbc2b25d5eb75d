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

// Command cold-node runs a single COLD L3 node: mempool, PoW miner, BFT
// finality engine, Fuego header verifier and Arbitrum bridge relayer,
// wired together and driven until SIGINT/SIGTERM.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ColinRitman/cold-l3/internal/bridge"
	"github.com/ColinRitman/cold-l3/internal/config"
	"github.com/ColinRitman/cold-l3/internal/consensus"
	"github.com/ColinRitman/cold-l3/internal/fuego"
	"github.com/ColinRitman/cold-l3/internal/mempool"
	"github.com/ColinRitman/cold-l3/internal/metrics"
	"github.com/ColinRitman/cold-l3/internal/settlement"
	"github.com/ColinRitman/cold-l3/internal/statestore"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	setupLogging()

	app := &cli.App{
		Name:  "cold-node",
		Usage: "run a COLD L3 node",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Value: "/ip4/0.0.0.0/tcp/4001", Usage: "libp2p-style listen multiaddr"},
			&cli.StringFlag{Name: "data-dir", Value: "./data", Usage: "directory for state/ and proofs/"},
			&cli.StringFlag{Name: "rpc-addr", Value: "127.0.0.1:8545", Usage: "RPC/metrics listen address"},
			&cli.StringFlag{Name: "config", Usage: "path to a TOML node config file"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("cold-node exited with an error", "err", err)
	}
}

func setupLogging() {
	useColor := isatty.IsTerminal(os.Stderr.Fd())
	out := io.Writer(os.Stderr)
	if useColor {
		out = colorable.NewColorableStderr()
	}
	glogger := log.NewGlogHandler(log.NewTerminalHandler(out, useColor))
	glogger.Verbosity(log.LvlInfo)
	log.SetDefault(log.NewLogger(glogger))
}

func run(c *cli.Context) error {
	cfg := config.DefaultNodeConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadNodeConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if v := c.String("listen"); v != "" {
		cfg.Listen = v
	}
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := c.String("rpc-addr"); v != "" {
		cfg.RPCAddr = v
	}

	log.Info("starting cold-node", "listen", cfg.Listen, "dataDir", cfg.DataDir, "rpcAddr", cfg.RPCAddr)

	store, err := statestore.Open(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return err
	}
	defer store.Close()

	poolCfg, err := cfg.MempoolPoolConfig()
	if err != nil {
		return err
	}
	pool := mempool.New(poolCfg)

	engine := consensus.New(consensus.Config{
		PowDifficulty: cfg.Consensus.PowDifficulty,
		BFT:           cfg.BFTConfig(),
		Miner:         cfg.MinerConfig(),
	}, pool)
	engine.Start()
	defer engine.Stop()

	verifier := fuego.New()
	settlementClient := settlement.NewSimulated(settlement.DefaultSimulatedConfig())
	relayer, err := bridge.NewWithRecovery(cfg.BridgeRelayerConfig(), verifier, settlementClient, filepath.Join(cfg.DataDir, "proofs"))
	if err != nil {
		return err
	}
	relayer.Start()
	defer relayer.Close()
	defer relayer.Stop()

	m, metricsHandler := metrics.New()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	server := &http.Server{Addr: cfg.RPCAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", "err", err)
		}
	}()
	defer server.Shutdown(context.Background())

	go proposalLoop(engine, relayer, m, cfg.Consensus.MaxBlockTxs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("received shutdown signal")

	return nil
}

// proposalLoop periodically proposes a block from the mempool's current
// contents and, once finalized, relays the header to the bridge.
func proposalLoop(engine *consensus.Engine, relayer *bridge.Relayer, m *metrics.Metrics, maxTxs int) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.MempoolSize.Set(float64(engine.MempoolStats().Count))
		m.BFTView.Set(float64(engine.CurrentView()))

		status, _ := engine.Status()
		if status != consensus.StatusRunning {
			continue
		}

		block, err := engine.ProposeBlock(maxTxs)
		if err != nil {
			log.Debug("no block proposed", "err", err)
			continue
		}
		m.BlocksMined.Inc()

		proof, err := relayer.CreateBridgeProof(block)
		if err != nil {
			log.Warn("bridge proof creation failed", "err", err)
			continue
		}
		m.BridgeProofs.WithLabelValues(proof.Status.String()).Inc()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = relayer.SubmitToArbitrum(ctx, proof)
		cancel()
		if err != nil {
			log.Warn("bridge submission failed, will retry", "err", err)
			m.BridgeProofs.WithLabelValues(bridge.ProofFailed.String()).Inc()
			continue
		}
		if submitted, ok := relayer.SubmittedProof(block.Header.Hash()); ok {
			m.BridgeProofs.WithLabelValues(submitted.Status.String()).Inc()
		}
	}
}
