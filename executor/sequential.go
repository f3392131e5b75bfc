// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "github.com/luxfi/geth/core/types"

// SequentialExecFunc executes a single transaction directly against the
// block's original (non-speculative) state view. It is the reference
// semantics design doc §9 calls out: "which is the reference semantics" —
// every fallback path in this package must reduce to calling this function
// in order, exactly once per transaction.
type SequentialExecFunc func(tx *types.Transaction, txIndex int) (*types.Receipt, error)

// RunSequential executes txs in order against fallback, never touching
// MV-Memory or the dependency tracker. This is the function every
// degrade-to-sequential path in Executor.Run calls into; per design doc
// §4.6 "This MUST always succeed (equivalent to the standard EVM path)," a
// SequentialExecFunc returning an error here is a caller bug, not a
// recoverable parallel-execution fault, so RunSequential does not retry.
func RunSequential(txs []*types.Transaction, fallback SequentialExecFunc) (Result, error) {
	receipts := make([]*types.Receipt, len(txs))
	for i, tx := range txs {
		receipt, err := fallback(tx, i)
		if err != nil {
			return Result{}, err
		}
		receipts[i] = receipt
	}
	return Result{Receipts: receipts, Fallback: true}, nil
}
