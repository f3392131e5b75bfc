// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the Token Duality precompile's process-wide
// configuration, loaded once at startup and never mutated afterwards
// (design doc §3 "Precompile configuration").
package config

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultAddress is the fixed protocol address of the native-transfer
// precompile: last byte 0xFD, constant across networks.
var DefaultAddress = common.HexToAddress("0x00000000000000000000000000000000000000FD")

// PrecompileConfig is the immutable, process-wide configuration for the
// Token Duality native-transfer precompile.
type PrecompileConfig struct {
	// Address is the fixed address the precompile is dispatched at.
	Address common.Address
	// TokenContractAddress is the sole authorized caller, or the zero
	// address to disable the authorized-caller requirement.
	TokenContractAddress common.Address
	// AllowList is the set of addresses permitted to call the precompile.
	// Always contains TokenContractAddress when it is non-zero.
	AllowList mapset.Set[common.Address]
	// PerCallCap is the maximum value transferable in a single call. A nil
	// value means the cap is disabled.
	PerCallCap *uint256.Int
	// PerBlockCap is the maximum cumulative value transferable within a
	// single block. A nil value means the cap is disabled.
	PerBlockCap *uint256.Int
	// StrictValidation, when false, makes the allow-list and caps
	// advisory only. Test-mode only; see design doc's open-question note
	// on strict_validation=false.
	StrictValidation bool
}

// New constructs and validates a PrecompileConfig, enforcing the
// invariants from design doc §3: address non-zero, token contract address
// present in the allow-list, and no zero address in the allow-list.
func New(address, tokenContract common.Address, extraAllowed []common.Address, perCallCap, perBlockCap *uint256.Int, strict bool) (*PrecompileConfig, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("precompile config: address must not be zero")
	}

	allowList := mapset.NewThreadUnsafeSet[common.Address]()
	for _, a := range extraAllowed {
		if a == (common.Address{}) {
			return nil, fmt.Errorf("precompile config: allow_list must never contain the zero address")
		}
		allowList.Add(a)
	}

	if tokenContract != (common.Address{}) {
		allowList.Add(tokenContract)
	}

	if perCallCap != nil && perCallCap.IsZero() {
		return nil, fmt.Errorf("precompile config: per_call_cap must be > 0 when enforced")
	}

	return &PrecompileConfig{
		Address:               address,
		TokenContractAddress:  tokenContract,
		AllowList:             allowList,
		PerCallCap:            perCallCap,
		PerBlockCap:           perBlockCap,
		StrictValidation:      strict,
	}, nil
}

// CallerAllowed reports whether caller may invoke the precompile under this
// configuration. It is advisory (always true) when StrictValidation is
// false.
func (c *PrecompileConfig) CallerAllowed(caller common.Address) bool {
	if !c.StrictValidation {
		return true
	}
	if c.TokenContractAddress == (common.Address{}) && c.AllowList.Cardinality() == 0 {
		// No authorized caller configured at all: the precompile is
		// disabled for callers, nothing is allowed.
		return false
	}
	return c.AllowList.Contains(caller)
}
