// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bftwrapper implements the Consensus Engine Wrapper (design doc
// component 9): weighted proposer selection and proposer-signature
// validation layered around any interfaces.Engine, delegating every other
// check to the inner engine unchanged.
//
// Proposer signature recovery uses github.com/luxfi/crypto, the same
// package luxfi/evm reaches for wherever it recovers a signer (e.g.
// crypto.CreateAddress in core/state_processor.go), over the header's seal
// hash with the signature carried in the last 65 bytes of header.Extra —
// the Clique-style "extra-data seal" convention this corpus's
// go-ethereum lineage uses, since no original_source material survived
// retrieval to specify an ANDE-native scheme (see SPEC_FULL.md §4.9).
package bftwrapper

import (
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/AndeLabs/ande-chain/interfaces"
	"github.com/AndeLabs/ande-chain/validatorset"
)

// SealLength is the byte length of the ECDSA recoverable signature carried
// at the end of header.Extra.
const SealLength = 65

// Engine wraps inner, adding weighted proposer selection and validation
// (design doc §4.9). When Enabled is false it behaves exactly as inner.
type Engine struct {
	inner      interfaces.Engine
	validators *validatorset.Store
	enabled    bool
	logger     log.Logger
}

// New constructs an Engine. enabled corresponds to design doc §6's global
// switch ANDE_CONSENSUS_ENABLED.
func New(inner interfaces.Engine, validators *validatorset.Store, enabled bool, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.Root()
	}
	return &Engine{inner: inner, validators: validators, enabled: enabled, logger: logger}
}

// VerifyHeader implements design doc §4.9's proposer-validation steps
// before delegating to the inner consensus. When disabled, it delegates
// immediately.
func (e *Engine) VerifyHeader(chain interfaces.ChainHeaderReader, header *types.Header, seal bool) error {
	if !e.enabled {
		return e.inner.VerifyHeader(chain, header, seal)
	}

	if err := e.verifyProposer(header); err != nil {
		return err
	}
	return e.inner.VerifyHeader(chain, header, seal)
}

func (e *Engine) verifyProposer(header *types.Header) error {
	if header.Number == nil {
		return fmt.Errorf("bftwrapper: header has nil number")
	}
	blockNumber := header.Number.Uint64()

	expected, err := ExpectedProposer(e.validators, blockNumber)
	if err != nil {
		return fmt.Errorf("bftwrapper: %w", err)
	}

	actual, err := RecoverSigner(header)
	if err != nil {
		return fmt.Errorf("bftwrapper: recover signer: %w", err)
	}

	if expected != actual {
		e.logger.Warn("bftwrapper: invalid proposer", "expected", expected, "actual", actual, "block", blockNumber)
		return &InvalidProposerError{Expected: expected, Actual: actual}
	}
	return nil
}

// RecoverSigner recovers the address that produced the seal signature
// carried in the last SealLength bytes of header.Extra, over the hash of the
// header with those seal bytes stripped (sealHash below, not the inner
// engine's SealHash).
func RecoverSigner(header *types.Header) (common.Address, error) {
	if len(header.Extra) < SealLength {
		return common.Address{}, fmt.Errorf("bftwrapper: extra-data too short for seal")
	}
	seal := header.Extra[len(header.Extra)-SealLength:]

	sealHash := sealHash(header)
	pubkey, err := crypto.SigToPub(sealHash.Bytes(), seal)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubkey), nil
}

func sealHash(header *types.Header) common.Hash {
	unsealed := types.CopyHeader(header)
	if len(unsealed.Extra) >= SealLength {
		unsealed.Extra = unsealed.Extra[:len(unsealed.Extra)-SealLength]
	}
	return unsealed.Hash()
}

// Author, VerifyHeaders, VerifyUncles, Prepare, Finalize,
// FinalizeAndAssemble, Seal, SealHash, CalcDifficulty, and Close delegate
// unchanged to the inner engine: the wrapper only adds checks to
// VerifyHeader, per design doc §4.9 "delegates all remaining checks to the
// inner consensus."

func (e *Engine) Author(header *types.Header) (common.Address, error) {
	return e.inner.Author(header)
}

func (e *Engine) VerifyHeaders(chain interfaces.ChainHeaderReader, headers []*types.Header, seals []bool) (chan<- struct{}, <-chan error) {
	if !e.enabled {
		return e.inner.VerifyHeaders(chain, headers, seals)
	}

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

func (e *Engine) VerifyUncles(chain interfaces.ChainReader, block *types.Block) error {
	return e.inner.VerifyUncles(chain, block)
}

func (e *Engine) Prepare(chain interfaces.ChainHeaderReader, header *types.Header) error {
	return e.inner.Prepare(chain, header)
}

func (e *Engine) Finalize(chain interfaces.ChainHeaderReader, header *types.Header, state interfaces.StateDB, txs []*types.Transaction, uncles []*types.Header) (*types.Block, error) {
	return e.inner.Finalize(chain, header, state, txs, uncles)
}

func (e *Engine) FinalizeAndAssemble(chain interfaces.ChainHeaderReader, header *types.Header, state interfaces.StateDB, txs []*types.Transaction, uncles []*types.Header, receipts []*types.Receipt) (*types.Block, error) {
	return e.inner.FinalizeAndAssemble(chain, header, state, txs, uncles, receipts)
}

func (e *Engine) Seal(chain interfaces.ChainHeaderReader, block *types.Block, results chan<- *types.Block, stop <-chan struct{}) error {
	return e.inner.Seal(chain, block, results, stop)
}

func (e *Engine) SealHash(header *types.Header) common.Hash {
	return e.inner.SealHash(header)
}

func (e *Engine) CalcDifficulty(chain interfaces.ChainHeaderReader, time uint64, parent *types.Header) *big.Int {
	return e.inner.CalcDifficulty(chain, time, parent)
}

func (e *Engine) Close() error {
	return e.inner.Close()
}
