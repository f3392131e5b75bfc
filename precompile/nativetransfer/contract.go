// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nativetransfer implements the Token Duality native-transfer
// precompile (design doc component 1): a fixed-address callable that moves
// native balance via the execution engine's journal transfer primitive,
// letting an ERC-20-style contract present that same balance as a token.
//
// The (RequiredGas, Run) shape is grounded on luxfi/evm's
// precompile/contracts/pqcrypto.Contract and the deprecated native-asset-call
// path in core/vm/contracts_stateful.go, adapted from a selector-dispatch
// cryptography precompile to a single fixed-layout transfer call.
package nativetransfer

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/AndeLabs/ande-chain/precompile/contract"
	"github.com/AndeLabs/ande-chain/vmerrs"
)

// Contract implements contract.StatefulPrecompiledContract for the native
// transfer call. It holds no mutable state of its own: the process-wide cap
// and allow-list enforcement lives in precompile/inspector, which runs
// before the EVM ever dispatches into Run.
type Contract struct{}

// NewContract returns the singleton-safe native-transfer contract. Like the
// teacher's precompile contracts, a single value is reused across every EVM
// instance because it holds no per-call state.
func NewContract() *Contract {
	return &Contract{}
}

// RequiredGas implements the base-plus-per-word gas formula from design doc
// §4.1: 3000 + 100 * ceil(len/32), capped at NativeTransferMaxGas as
// defense in depth.
func (c *Contract) RequiredGas(input []byte) uint64 {
	words := (uint64(len(input)) + 31) / 32
	cost := vmerrs.NativeTransferBaseGas + vmerrs.NativeTransferWordGas*words
	if cost > vmerrs.NativeTransferMaxGas {
		return vmerrs.NativeTransferMaxGas
	}
	return cost
}

// Run executes the native transfer. Preconditions are checked in the exact
// order design doc §4.1 specifies; the first failure aborts and the gas
// already computed by RequiredGas has been charged by the caller per
// standard precompile semantics.
func (c *Contract) Run(accessibleState contract.AccessibleState, caller common.Address, addr common.Address, input []byte, suppliedGas uint64, readOnly bool) ([]byte, uint64, error) {
	requiredGas := c.RequiredGas(input)
	if suppliedGas < requiredGas {
		return nil, 0, vmerrs.ErrOutOfGas
	}
	remainingGas := suppliedGas - requiredGas

	decoded, err := decodeInput(input)
	if err != nil {
		return nil, remainingGas, err
	}

	if decoded.To == (common.Address{}) {
		return nil, remainingGas, vmerrs.ErrTransferToZero
	}

	if decoded.Value.IsZero() {
		// Optimization per design doc §4.1 step 3: succeed with empty
		// output, no state change.
		return nil, remainingGas, nil
	}

	// Static-call isolation (design doc §4.1, testable property 7) is
	// enforced by the EVM's journal: SubBalance/AddBalance on a read-only
	// StateDB snapshot must fail. Run also refuses the transfer itself when
	// readOnly is set, before touching state, as defense in depth.
	if readOnly {
		return nil, remainingGas, vmerrs.ErrWriteProtection
	}

	state := accessibleState.GetStateDB()
	snapshot := state.Snapshot()

	if err := transfer(state, decoded.From, decoded.To, decoded.Value); err != nil {
		state.RevertToSnapshot(snapshot)
		return nil, remainingGas, &TransferFailedError{From: decoded.From, To: decoded.To, Value: decoded.Value.ToBig(), cause: err}
	}

	return nil, remainingGas, nil
}

// transfer performs exactly one balance decrement on from and one increment
// of equal magnitude on to, atomically with the surrounding call frame
// (design doc §4.1 "Side effects").
func transfer(state contract.StateDB, from, to common.Address, value *uint256.Int) error {
	if err := state.SubBalance(from, value, "nativetransfer"); err != nil {
		return err
	}
	if err := state.AddBalance(to, value, "nativetransfer"); err != nil {
		// Best-effort rollback of the debit; the caller also reverts the
		// whole snapshot, this just keeps transfer() itself atomic if ever
		// called outside a snapshot boundary.
		_ = state.AddBalance(from, value, "nativetransfer-rollback")
		return err
	}
	return nil
}

// TransferFailedError maps any underlying journal failure (insufficient
// balance, journal error) to the structured TransferFailed kind from design
// doc §7.
type TransferFailedError struct {
	From, To common.Address
	Value    *big.Int
	cause    error
}

func (e *TransferFailedError) Error() string {
	return vmerrs.ErrTransferFailed.Error()
}

func (e *TransferFailedError) Unwrap() error {
	return vmerrs.ErrTransferFailed
}

func (e *TransferFailedError) Cause() error {
	return e.cause
}
