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

// Command prove-burn generates a proof-of-burn proof for an XFG burn
// transaction: it constructs the prover's secret from the term/chain
// code, burn tx hash and random salt, runs the AIR trace, and writes the
// resulting proof and public inputs as JSON.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ColinRitman/cold-l3/internal/pob"
)

// proofOutput mirrors the shape emitted by the original prove-burn
// utility: the proof, its public inputs, a flattened public-signals
// list, calldata, and circuit metadata.
type proofOutput struct {
	Proof         string      `json:"proof"`
	PublicInputs  publicInputs `json:"public_inputs"`
	PublicSignals []string    `json:"public_signals"`
	Calldata      string      `json:"calldata"`
	CircuitInfo   circuitInfo `json:"circuit_info"`
}

type publicInputs struct {
	Nullifier     string `json:"nullifier"`
	Commitment    string `json:"commitment"`
	RecipientHash string `json:"recipient_hash"`
}

type circuitInfo struct {
	TraceLength    int    `json:"trace_length"`
	NumColumns     int    `json:"num_columns"`
	NumConstraints int    `json:"num_constraints"`
	ProofSystem    string `json:"proof_system"`
}

func main() {
	app := &cli.App{
		Name:  "prove-burn",
		Usage: "generate a proof-of-burn proof for an XFG burn transaction",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "term-code", Required: true, Usage: "termination code (1 byte hex)"},
			&cli.StringFlag{Name: "chain-code", Required: true, Usage: "destination chain identifier (1 byte hex)"},
			&cli.StringFlag{Name: "random-salt", Required: true, Usage: "random entropy (22 bytes hex)"},
			&cli.StringFlag{Name: "xfg-tx-hash", Required: true, Usage: "hash of the XFG burn transaction (32 bytes hex)"},
			&cli.Uint64Flag{Name: "fuego-block-height", Required: true, Usage: "height of the Fuego block containing the burn"},
			&cli.StringFlag{Name: "fuego-block-hash", Usage: "hash of the Fuego block containing the burn (informational)"},
			&cli.StringFlag{Name: "recipient", Required: true, Usage: "settlement-chain recipient address"},
			&cli.StringFlag{Name: "output", Value: "proof.json", Aliases: []string{"o"}, Usage: "output file for the proof"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "prove-burn:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	termCode, err := parseByte(c.String("term-code"))
	if err != nil {
		return fmt.Errorf("--term-code: %w", err)
	}
	chainCode, err := parseByte(c.String("chain-code"))
	if err != nil {
		return fmt.Errorf("--chain-code: %w", err)
	}
	xfgTxHash, err := parseFixed32(c.String("xfg-tx-hash"))
	if err != nil {
		return fmt.Errorf("--xfg-tx-hash: %w", err)
	}
	randomSalt, err := parseFixed22(c.String("random-salt"))
	if err != nil {
		return fmt.Errorf("--random-salt: %w", err)
	}
	if !common.IsHexAddress(c.String("recipient")) {
		return fmt.Errorf("--recipient: not a valid address: %s", c.String("recipient"))
	}
	recipient := common.HexToAddress(c.String("recipient"))

	var blockHeight fr.Element
	blockHeight.SetUint64(c.Uint64("fuego-block-height"))

	var recipientHash fr.Element
	recipientHash.SetBytes(crypto.Keccak256(recipient.Bytes()))

	secret := pob.ConstructSecret(termCode, chainCode, xfgTxHash, randomSalt)

	proof, pub := pob.Prove(secret, blockHeight, recipientHash)

	if err := pob.Verify(proof, pub); err != nil {
		return fmt.Errorf("generated proof failed self-verification: %w", err)
	}

	calldata, err := pob.BuildCalldata(proof, pub, recipient)
	if err != nil {
		return fmt.Errorf("build calldata: %w", err)
	}

	proofBytes, err := pob.MarshalProof(proof)
	if err != nil {
		return fmt.Errorf("marshal proof: %w", err)
	}

	nullifierBytes := pub.Nullifier.Bytes()
	commitmentBytes := pub.Commitment.Bytes()
	recipientHashBytes := pub.RecipientHash.Bytes()

	out := proofOutput{
		Proof: hex.EncodeToString(proofBytes),
		PublicInputs: publicInputs{
			Nullifier:     hex.EncodeToString(nullifierBytes[:]),
			Commitment:    hex.EncodeToString(commitmentBytes[:]),
			RecipientHash: hex.EncodeToString(recipientHashBytes[:]),
		},
		PublicSignals: []string{
			hex.EncodeToString(nullifierBytes[:]),
			hex.EncodeToString(commitmentBytes[:]),
			hex.EncodeToString(recipientHashBytes[:]),
		},
		Calldata: hex.EncodeToString(flattenCalldata(calldata)),
		CircuitInfo: circuitInfo{
			TraceLength:    pob.TraceRows,
			NumColumns:     pob.TraceCols,
			NumConstraints: 4,
			ProofSystem:    "AIR-constraint-check (no STARK backend in the retrieved corpus)",
		},
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.String("output"), data, 0o644); err != nil {
		return err
	}

	fmt.Printf("proof written to %s (%d bytes)\n", c.String("output"), len(proofBytes))
	return nil
}

func flattenCalldata(c pob.Calldata) []byte {
	out := make([]byte, 0, len(c.ProofBytes)+32+32+32+20)
	out = append(out, c.ProofBytes...)
	out = append(out, c.Nullifier[:]...)
	out = append(out, c.Commitment[:]...)
	out = append(out, c.RecipientHashWord[:]...)
	out = append(out, c.Recipient.Bytes()...)
	return out
}

func parseByte(s string) (byte, error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil || len(b) != 1 {
		return 0, fmt.Errorf("expected 1 byte hex, got %q", s)
	}
	return b[0], nil
}

func parseFixed32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes hex, got %q", s)
	}
	copy(out[:], b)
	return out, nil
}

func parseFixed22(s string) ([22]byte, error) {
	var out [22]byte
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil || len(b) != 22 {
		return out, fmt.Errorf("expected 22 bytes hex, got %q", s)
	}
	copy(out[:], b)
	return out, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
