// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mev implements the post-execution MEV Redirect (design doc
// component 7): profit above a threshold is transferred to a validated
// sink address via the same journal mechanism as the native-transfer
// precompile.
package mev

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/AndeLabs/ande-chain/precompile/contract"
)

// Config is the MEV redirect configuration from design doc §3. sink must
// be non-zero; enforced at construction, never at call time.
type Config struct {
	Sink         common.Address
	MinThreshold *uint256.Int
}

// Redirect is the post-execution hook the EVM Factory Wrapper installs.
type Redirect struct {
	cfg    Config
	logger log.Logger
}

// New constructs a Redirect. A zero sink is rejected, per design doc §3
// invariant and the MevSinkZero error kind in §7 ("process exit").
func New(cfg Config, logger log.Logger) (*Redirect, error) {
	if cfg.Sink == (common.Address{}) {
		return nil, fmt.Errorf("mev: sink address must not be zero")
	}
	if cfg.MinThreshold == nil {
		cfg.MinThreshold = uint256.NewInt(0)
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Redirect{cfg: cfg, logger: logger}, nil
}

// TxProfit is the per-transaction profit accounting design doc §4.7
// defines: (gas_used * effective_priority_fee) + direct value transfers to
// the coinbase address.
type TxProfit struct {
	GasUsed              uint64
	EffectivePriorityFee *uint256.Int
	DirectToCoinbase     *uint256.Int
}

// Amount computes the total profit for this transaction, saturating rather
// than overflowing (design doc §9 "Caps without slashing").
func (p TxProfit) Amount() *uint256.Int {
	gasUsed := new(uint256.Int).SetUint64(p.GasUsed)
	fromGas := saturatingMul(gasUsed, p.EffectivePriorityFee)
	direct := p.DirectToCoinbase
	if direct == nil {
		direct = uint256.NewInt(0)
	}
	return saturatingAdd(fromGas, direct)
}

// Apply redirects profit from the block proposer (coinbase) to the sink
// when it exceeds MinThreshold, via the same StateDB transfer primitive
// the native-transfer precompile uses.
func (r *Redirect) Apply(state contract.StateDB, coinbase common.Address, profit TxProfit) error {
	amount := profit.Amount()
	if amount.Cmp(r.cfg.MinThreshold) <= 0 {
		return nil
	}

	if err := state.SubBalance(coinbase, amount, "mev-redirect"); err != nil {
		return fmt.Errorf("mev: debit coinbase: %w", err)
	}
	if err := state.AddBalance(r.cfg.Sink, amount, "mev-redirect"); err != nil {
		_ = state.AddBalance(coinbase, amount, "mev-redirect-rollback")
		return fmt.Errorf("mev: credit sink: %w", err)
	}

	r.logger.Debug("mev: profit redirected", "coinbase", coinbase, "sink", r.cfg.Sink, "amount", amount)
	return nil
}

func saturatingAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return sum
}

func saturatingMul(a, b *uint256.Int) *uint256.Int {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return product
}
