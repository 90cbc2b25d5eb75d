// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package mempool

import (
	"time"

	"github.com/ColinRitman/cold-l3/internal/chain"
)

// PriorityPolicyKind closes the priority-calculator enumeration.
type PriorityPolicyKind uint8

const (
	PrioritySimple PriorityPolicyKind = iota
	PriorityTimeBased
	PriorityMultiFactor
)

// PriorityPolicy is a tagged priority calculator. MultiFactor's output is
// scaled into [0, 1000]; the other two are u64 fee/priority values.
type PriorityPolicy struct {
	Kind PriorityPolicyKind

	// TimeBased: priority = base * max(0, 1 - decay*age_seconds).
	Base  uint64
	Decay float64

	// MultiFactor: weights need not sum to 1.
	FeeWeight  float64
	TimeWeight float64
	SizeWeight float64
}

// NewSimplePriorityPolicy returns the Simple policy: priority = tx.fee.
func NewSimplePriorityPolicy() PriorityPolicy {
	return PriorityPolicy{Kind: PrioritySimple}
}

// NewTimeBasedPriorityPolicy returns the TimeBased(base, decay) policy.
func NewTimeBasedPriorityPolicy(base uint64, decay float64) PriorityPolicy {
	return PriorityPolicy{Kind: PriorityTimeBased, Base: base, Decay: decay}
}

// NewMultiFactorPriorityPolicy returns the MultiFactor(wf, wt, ws) policy.
func NewMultiFactorPriorityPolicy(wf, wt, ws float64) PriorityPolicy {
	return PriorityPolicy{Kind: PriorityMultiFactor, FeeWeight: wf, TimeWeight: wt, SizeWeight: ws}
}

// Priority scores tx under this policy, evaluated against now.
func (p PriorityPolicy) Priority(tx chain.Transaction, now time.Time) uint64 {
	switch p.Kind {
	case PriorityTimeBased:
		age := float64(now.Unix()) - float64(tx.Timestamp)
		if age < 0 {
			age = 0
		}
		decay := p.Decay * age
		factor := 1 - decay
		if factor < 0 {
			factor = 0
		}
		return uint64(float64(p.Base) * factor)
	case PriorityMultiFactor:
		feeScore := float64(tx.Fee) / 1000.0
		age := float64(now.Unix()) - float64(tx.Timestamp)
		if age < 0 {
			age = 0
		}
		timeScore := 1.0 / (1.0 + age/3600.0)
		txSize := float64(len(tx.Inputs) + len(tx.Outputs))
		sizeScore := 1.0 / (1.0 + txSize/10.0)

		combined := feeScore*p.FeeWeight + timeScore*p.TimeWeight + sizeScore*p.SizeWeight
		score := combined * 1000.0
		if score < 0 {
			score = 0
		}
		if score > 1000 {
			score = 1000
		}
		return uint64(score)
	default: // PrioritySimple
		return tx.Fee
	}
}
