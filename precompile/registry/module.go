// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry facilitates registration of stateful precompiles and
// their configuration, adapted from luxfi/evm's precompile/registry package.
// Unlike the teacher's registry (built for a handful of optional precompiles
// behind upgrade configs), this module's domain has exactly one precompile,
// but the registration machinery is kept: it is what lets
// evmfactory.Factory install precompiles by address lookup instead of a
// hardcoded switch, and gives the rest of the system a single place to find
// "what precompiles exist" for telemetry and tests.
package registry

import (
	"bytes"

	"github.com/luxfi/geth/common"

	"github.com/AndeLabs/ande-chain/precompile/contract"
)

// Module wraps a precompile contract with the metadata the registry and the
// EVM Factory Wrapper need to install it.
type Module struct {
	// ConfigKey is the key used to identify this precompile's config.
	ConfigKey string
	// Address is where the stateful precompile is accessible.
	Address common.Address
	// Contract is the thread-safe singleton used as the
	// StatefulPrecompiledContract when this module is enabled.
	Contract contract.StatefulPrecompiledContract
}

// NewModule constructs a Module.
func NewModule(configKey string, address common.Address, c contract.StatefulPrecompiledContract) Module {
	return Module{ConfigKey: configKey, Address: address, Contract: c}
}

type moduleArray []Module

func (m moduleArray) Len() int      { return len(m) }
func (m moduleArray) Swap(i, j int) { m[i], m[j] = m[j], m[i] }
func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}
