// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package mempool

import "github.com/ColinRitman/cold-l3/internal/chain"

// FeePolicyKind closes the fee-algorithm enumeration. Extensibility is by
// adding a variant and a case in Calculate, not by an open interface.
type FeePolicyKind uint8

const (
	FeeSimple FeePolicyKind = iota
	FeeDynamic
	FeePriority
)

// FeePolicy is a tagged fee calculator: Simple(base), Dynamic(base, m) or
// Priority(base, multipliers). All clamp their output to [Min, Max].
type FeePolicy struct {
	Kind FeePolicyKind

	Base uint64
	Min  uint64
	Max  uint64

	// Dynamic: externally adjustable congestion multiplier.
	CongestionMultiplier float64

	// Priority: multiplier selected by min(tx.fee, len(multipliers)-1).
	Multipliers []float64
}

// NewSimpleFeePolicy builds a Simple(base) policy with min=1, max=MaxUint64.
func NewSimpleFeePolicy(base uint64) FeePolicy {
	return FeePolicy{Kind: FeeSimple, Base: base, Min: 1, Max: ^uint64(0)}
}

// WithLimits returns a copy of the policy with an explicit [min, max] clamp.
func (p FeePolicy) WithLimits(min, max uint64) FeePolicy {
	p.Min, p.Max = min, max
	return p
}

// NewDynamicFeePolicy builds a Dynamic(base, multiplier) policy.
func NewDynamicFeePolicy(base uint64, multiplier float64) FeePolicy {
	return FeePolicy{Kind: FeeDynamic, Base: base, Min: 1, Max: ^uint64(0), CongestionMultiplier: multiplier}
}

// NewPriorityFeePolicy builds a Priority(base, multipliers) policy.
func NewPriorityFeePolicy(base uint64, multipliers []float64) FeePolicy {
	return FeePolicy{Kind: FeePriority, Base: base, Min: 1, Max: ^uint64(0), Multipliers: multipliers}
}

func clamp(v, min, max uint64) uint64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func size(tx chain.Transaction) uint64 {
	return uint64(len(tx.Inputs) + len(tx.Outputs))
}

// Calculate returns the required fee for tx under this policy.
func (p FeePolicy) Calculate(tx chain.Transaction) uint64 {
	switch p.Kind {
	case FeeDynamic:
		base := p.Base * size(tx)
		fee := uint64(float64(base) * p.CongestionMultiplier)
		return clamp(fee, p.Min, p.Max)
	case FeePriority:
		base := p.Base * size(tx)
		if len(p.Multipliers) == 0 {
			return clamp(base, p.Min, p.Max)
		}
		level := tx.Fee
		if level >= uint64(len(p.Multipliers)) {
			level = uint64(len(p.Multipliers)) - 1
		}
		fee := uint64(float64(base) * p.Multipliers[level])
		return clamp(fee, p.Min, p.Max)
	default: // FeeSimple
		return clamp(p.Base*size(tx), p.Min, p.Max)
	}
}
