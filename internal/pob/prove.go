// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package pob's prove.go wraps the AIR in the shape of a prove/verify
// API. No STARK prover library (FFT, FRI, polynomial commitments) exists
// anywhere in the retrieved corpus, so Prove packages the full execution
// trace as the "proof" and Verify re-evaluates the AIR's transition
// constraints and boundary assertions directly against it, using
// gnark-crypto's bn254 scalar field as the concrete field. This is a
// deliberate stand-in for a succinct argument, not one: the trace itself
// is disclosed, so it carries none of a real STARK's zero-knowledge or
// succinctness properties.
package pob

import (
	"encoding/gob"
	"errors"
	"bytes"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrConstraintViolation = errors.New("pob: trace violates a transition constraint")
	ErrAssertionViolation  = errors.New("pob: trace violates a boundary assertion")
	ErrZeroNullifier       = errors.New("pob: nullifier is zero")
)

// PublicInputs are the values exposed to the verifier: (nullifier,
// commitment, recipient_hash). The verifier checks only the AIR and that
// nullifier != 0.
type PublicInputs struct {
	Nullifier     fr.Element
	Commitment    fr.Element
	RecipientHash fr.Element
}

// Proof bundles the execution trace with the block height used to build
// it (needed to re-derive the boundary assertions at verification time).
type Proof struct {
	Trace       Trace
	BlockHeight fr.Element
}

// Prove builds the execution trace for secret/blockHeight/recipientHash
// and returns the resulting Proof alongside its public inputs.
func Prove(secret, blockHeight, recipientHash fr.Element) (Proof, PublicInputs) {
	trace := BuildTrace(secret, blockHeight, recipientHash)
	pub := PublicInputs{
		Nullifier:     trace.FinalNullifier(),
		Commitment:    trace.FinalCommitment(),
		RecipientHash: recipientHash,
	}
	return Proof{Trace: trace, BlockHeight: blockHeight}, pub
}

// Verify checks proof.Trace against the AIR's transition constraints and
// boundary assertions for the given public inputs, and that the
// nullifier is nonzero.
func Verify(proof Proof, pub PublicInputs) error {
	if !proof.Trace.CheckTransitions() {
		return ErrConstraintViolation
	}

	assertions := Assertions{
		Secret:        proof.Trace[0][colSecret],
		Nullifier:     pub.Nullifier,
		Commitment:    pub.Commitment,
		BlockHeight:   proof.BlockHeight,
		RecipientHash: pub.RecipientHash,
	}
	if !proof.Trace.CheckAssertions(assertions) {
		return ErrAssertionViolation
	}

	var zero fr.Element
	if pub.Nullifier.Equal(&zero) {
		return ErrZeroNullifier
	}

	return nil
}

// MarshalProof serializes proof for wire transport / file output.
func MarshalProof(proof Proof) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(proof); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalProof reverses MarshalProof.
func UnmarshalProof(data []byte) (Proof, error) {
	var proof Proof
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&proof); err != nil {
		return Proof{}, err
	}
	return proof, nil
}

// Calldata is the ABI-shaped payload for on-chain submission: the
// serialized proof, the three public field elements as 32-byte
// big-endian words, and the recipient address.
type Calldata struct {
	ProofBytes   []byte
	Nullifier    [32]byte
	Commitment   [32]byte
	RecipientHashWord [32]byte
	Recipient    common.Address
}

// BuildCalldata packages proof and pub for submission to the recipient
// address on the settlement chain.
func BuildCalldata(proof Proof, pub PublicInputs, recipient common.Address) (Calldata, error) {
	proofBytes, err := MarshalProof(proof)
	if err != nil {
		return Calldata{}, err
	}

	nullifierBytes := pub.Nullifier.Bytes()
	commitmentBytes := pub.Commitment.Bytes()
	recipientHashBytes := pub.RecipientHash.Bytes()

	return Calldata{
		ProofBytes:        proofBytes,
		Nullifier:         nullifierBytes,
		Commitment:        commitmentBytes,
		RecipientHashWord: recipientHashBytes,
		Recipient:         recipient,
	}, nil
}
