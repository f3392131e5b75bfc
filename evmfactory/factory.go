// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package evmfactory implements the EVM Factory Wrapper (design doc
// component 8): it delegates EVM construction to a standard inner factory
// and installs the Precompile Registry, Precompile Inspector, and (when
// enabled) MEV Redirect into every instance it builds.
//
// The wrap-and-install pattern is adapted from luxfi/evm's
// core.LuxPrecompileOverrider / precompileAdapter in
// core/precompile_overrider.go, which overrides precompile dispatch and
// adapts the concrete EVM's StateDB into the narrow contract.StateDB this
// module's precompiles depend on — generalized here to a factory-level
// wrapper so the hooks survive across any inner-engine upgrade.
package evmfactory

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/AndeLabs/ande-chain/mev"
	"github.com/AndeLabs/ande-chain/precompile/contract"
	"github.com/AndeLabs/ande-chain/precompile/inspector"
	"github.com/AndeLabs/ande-chain/precompile/registry"
)

// InnerFactory is the standard EVM factory this module wraps. It is
// supplied by the external execution engine; this module never implements
// it.
type InnerFactory interface {
	// PrecompileOverride is called by the inner EVM whenever a CALL dispatches
	// to an address that might be a stateful precompile. The wrapper never
	// calls into the inner EVM itself here; instead the inner EVM calls back
	// into the wrapper's PrecompileOverride (see Factory below), matching
	// luxfi/evm's vm.PrecompileOverrider contract.
}

// Factory wraps InnerFactory and installs the Precompile Registry,
// Precompile Inspector, and MEV Redirect into every EVM instance it is
// responsible for. It is generic over the inner factory (design doc §4.8:
// "so that upgrades to the underlying engine require no reimplementation
// of ANDE hooks").
type Factory[I InnerFactory] struct {
	Inner      I
	Inspector  *inspector.Inspector
	MEV        *mev.Redirect
	mevEnabled bool
}

// New constructs a Factory. mevRedirect may be nil when MEV redirection is
// disabled (design doc §6: ANDE_MEV_ENABLED default false).
func New[I InnerFactory](inner I, insp *inspector.Inspector, mevRedirect *mev.Redirect) *Factory[I] {
	return &Factory[I]{
		Inner:      inner,
		Inspector:  insp,
		MEV:        mevRedirect,
		mevEnabled: mevRedirect != nil,
	}
}

// PrecompileOverride implements the inner EVM's precompile-override hook
// (design doc §4.8 step 1: "installing the Precompile Registry entry at
// precompile_address"). It looks the address up in the registry exactly as
// luxfi/evm's LuxPrecompileOverrider does against modules.RegisteredModules().
func (f *Factory[I]) PrecompileOverride(addr common.Address) (contract.StatefulPrecompiledContract, bool) {
	m, ok := registry.GetModuleByAddress(addr)
	if !ok {
		return nil, false
	}
	return m.Contract, true
}

// BeforeCall implements design doc §4.8 step 2: the Precompile Inspector
// runs as a pre-call observer ahead of every CALL/DELEGATECALL/STATICCALL.
func (f *Factory[I]) BeforeCall(blockNumber uint64, target, caller common.Address, input []byte) error {
	return f.Inspector.BeforeCall(blockNumber, target, caller, input)
}

// AfterCall implements design doc §4.2 step 7 / §4.8 step 2's counterpart:
// advancing the inspector's per-block counter after a successful call.
func (f *Factory[I]) AfterCall(blockNumber uint64, target common.Address, value *uint256.Int, callOK bool) {
	f.Inspector.AfterCall(blockNumber, target, value, callOK)
}

// MEVEnabled reports whether the MEV Redirect post-execution observer is
// installed (design doc §4.8 step 3).
func (f *Factory[I]) MEVEnabled() bool {
	return f.mevEnabled
}
