// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package pob

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// ConstructSecret folds the 32-byte secret layout — term_code(1) ||
// chain_code(1) || xfg_tx_hash[0:8](8) || random_salt[0:22](22) — into
// one field element via the fixed polynomial mixer: the 32 bytes read
// as a big-endian base-256 polynomial, reduced modulo the field order.
// Distinct 32-byte inputs yield distinct elements with overwhelming
// probability.
func ConstructSecret(termCode, chainCode byte, xfgTxHash [32]byte, randomSalt [22]byte) fr.Element {
	var buf [32]byte
	buf[0] = termCode
	buf[1] = chainCode
	copy(buf[2:10], xfgTxHash[:8])
	copy(buf[10:32], randomSalt[:])

	var secret fr.Element
	secret.SetBytes(buf[:])
	return secret
}

// BuildTrace runs the proof-of-burn recursion forward from row 0, given
// the prover's secret and the two constant columns (block height,
// recipient hash). Row 0's nullifier/commitment cells are left at zero
// (arbitrary per the boundary spec — only rows >= 1 are constrained).
func BuildTrace(secret, blockHeight, recipientHash fr.Element) Trace {
	var t Trace

	t[0][colSecret] = secret
	t[0][colBlockHeight] = blockHeight
	t[0][colRecipientHash] = recipientHash

	for i := 0; i < TraceRows-1; i++ {
		current := t[i]

		var next Row
		next[colSecret] = current[colSecret]
		next[colNullifier].Square(&current[colSecret])
		next[colCommitment].Square(&current[colNullifier])
		next[colBlockHeight] = current[colBlockHeight]
		next[colRecipientHash] = current[colRecipientHash]

		t[i+1] = next
	}

	return t
}

// FinalNullifier and FinalCommitment read the public outputs off the
// last row, per the boundary assertions.
func (t Trace) FinalNullifier() fr.Element  { return t[TraceRows-1][colNullifier] }
func (t Trace) FinalCommitment() fr.Element { return t[TraceRows-1][colCommitment] }
