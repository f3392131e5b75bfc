// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package beacon provides a minimal standard beacon-style consensus engine:
// structural block validation only (parent hash, timestamp monotonicity,
// gas-limit bounds), with no proposer selection or BFT validation of its
// own — that is layered on top by consensus/bftwrapper (design doc §4.9).
//
// It exists so this module has a concrete, testable interfaces.Engine to
// wrap and to use as the default inner consensus for a standalone sovereign
// deployment; a production deployment may substitute any other
// interfaces.Engine implementation (e.g. a beacon-chain-driven one from the
// external execution engine) without touching consensus/bftwrapper.
//
// Structured after luxfi/evm's consensus/dummy.DummyEngine: a small Mode
// bitmask selects which checks to skip (useful for tests), and the engine
// carries no other state.
package beacon

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	"github.com/AndeLabs/ande-chain/interfaces"
)

// Mode is a bitmask of structural checks to skip, mirroring
// consensus/dummy.Mode's ModeSkipHeader/ModeSkipBlockFee/ModeSkipCoinbase.
type Mode uint

const (
	ModeNormal          Mode = 0
	ModeSkipHeader      Mode = 1 << iota
	ModeSkipGasLimit
)

// Engine is the minimal structural-checks-only consensus engine.
type Engine struct {
	mode Mode
}

// New constructs an Engine in ModeNormal.
func New() *Engine { return &Engine{mode: ModeNormal} }

// NewWithMode constructs an Engine with the given skip-mode, for tests.
func NewWithMode(mode Mode) *Engine { return &Engine{mode: mode} }

var (
	errUnknownAncestor = errors.New("beacon: unknown ancestor")
	errInvalidTimestamp = errors.New("beacon: timestamp not strictly increasing")
	errInvalidGasLimit  = errors.New("beacon: invalid gas limit")
)

// Author returns the header's coinbase; proposer identity/signature
// validation is the bftwrapper's job, not this engine's.
func (e *Engine) Author(header *types.Header) (common.Address, error) {
	return header.Coinbase, nil
}

// VerifyHeader checks parent linkage, timestamp monotonicity, and gas
// limit bounds.
func (e *Engine) VerifyHeader(chain interfaces.ChainHeaderReader, header *types.Header, seal bool) error {
	if e.mode&ModeSkipHeader != 0 {
		return nil
	}
	if header.Number == nil {
		return fmt.Errorf("beacon: header has nil number")
	}
	parent := chain.GetHeader(header.ParentHash, header.Number.Uint64()-1)
	if parent == nil {
		return errUnknownAncestor
	}
	if header.Time <= parent.Time {
		return errInvalidTimestamp
	}
	if e.mode&ModeSkipGasLimit == 0 {
		if header.GasUsed > header.GasLimit {
			return errInvalidGasLimit
		}
	}
	return nil
}

// VerifyHeaders verifies a batch concurrently, returning a channel of
// per-header results in order, matching the interfaces.Engine contract.
func (e *Engine) VerifyHeaders(chain interfaces.ChainHeaderReader, headers []*types.Header, seals []bool) (chan<- struct{}, <-chan error) {
	abort := make(chan struct{})
	results := make(chan error, len(headers))
	go func() {
		for _, h := range headers {
			select {
			case <-abort:
				return
			default:
			}
			results <- e.VerifyHeader(chain, h, false)
		}
	}()
	return abort, results
}

// VerifyUncles rejects any block carrying uncles; this rollup has no
// uncle/ommer concept.
func (e *Engine) VerifyUncles(chain interfaces.ChainReader, block *types.Block) error {
	if len(block.Uncles()) > 0 {
		return fmt.Errorf("beacon: uncles not supported")
	}
	return nil
}

// Prepare sets the fields this engine controls before transaction
// execution; it has no consensus fields of its own to stamp.
func (e *Engine) Prepare(chain interfaces.ChainHeaderReader, header *types.Header) error {
	return nil
}

// Finalize performs no post-transaction state modification beyond what the
// execution engine already did, and assembles the final block.
func (e *Engine) Finalize(chain interfaces.ChainHeaderReader, header *types.Header, state interfaces.StateDB, txs []*types.Transaction, uncles []*types.Header) (*types.Block, error) {
	return types.NewBlock(header, txs, uncles, nil, nil), nil
}

// FinalizeAndAssemble is Finalize plus receipt-bearing block assembly.
func (e *Engine) FinalizeAndAssemble(chain interfaces.ChainHeaderReader, header *types.Header, state interfaces.StateDB, txs []*types.Transaction, uncles []*types.Header, receipts []*types.Receipt) (*types.Block, error) {
	return types.NewBlock(header, txs, uncles, receipts, nil), nil
}

// Seal is a no-op: block sealing (signing) in this rollup is the
// responsibility of the external sequencer/engine-API driver, an
// out-of-scope collaborator per design doc §1.
func (e *Engine) Seal(chain interfaces.ChainHeaderReader, block *types.Block, results chan<- *types.Block, stop <-chan struct{}) error {
	results <- block
	return nil
}

// SealHash returns the full header hash; this engine has no
// consensus-specific header fields to exclude.
func (e *Engine) SealHash(header *types.Header) common.Hash {
	return header.Hash()
}

// CalcDifficulty always returns 1: this rollup does not use PoW-style
// difficulty.
func (e *Engine) CalcDifficulty(chain interfaces.ChainHeaderReader, time uint64, parent *types.Header) *big.Int {
	return big.NewInt(1)
}

// Close has no background resources to release.
func (e *Engine) Close() error { return nil }
