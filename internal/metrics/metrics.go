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

// Package metrics exposes the node's per-subsystem counters and gauges
// over Prometheus, the same client library the teacher and coreth both
// depend on directly. The registered series are a read-only surface; the
// RPC adapter that would consume them is out of scope.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the node's registered series.
type Metrics struct {
	MempoolSize    prometheus.Gauge
	BlocksMined    prometheus.Counter
	BFTView        prometheus.Gauge
	BridgeProofs   *prometheus.CounterVec
}

// New registers every series against a fresh registry and returns both
// the Metrics handle and an http.Handler serving them in the Prometheus
// exposition format.
func New() (*Metrics, http.Handler) {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		MempoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "coldl3",
			Subsystem: "mempool",
			Name:      "size",
			Help:      "Number of transactions currently held in the mempool.",
		}),
		BlocksMined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "coldl3",
			Subsystem: "miner",
			Name:      "blocks_mined_total",
			Help:      "Total number of blocks successfully mined.",
		}),
		BFTView: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "coldl3",
			Subsystem: "bft",
			Name:      "view",
			Help:      "Current BFT view number.",
		}),
		BridgeProofs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coldl3",
			Subsystem: "bridge",
			Name:      "proofs_total",
			Help:      "Total bridge proofs observed, partitioned by status.",
		}, []string{"status"}),
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
