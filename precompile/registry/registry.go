// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"fmt"
	"sort"

	"github.com/luxfi/geth/common"

	"github.com/AndeLabs/ande-chain/precompile/nativetransfer"
)

var (
	// registeredModules is kept sorted by address (RegisterModule re-sorts
	// after every append) for deterministic iteration.
	registeredModules = make([]Module, 0)

	// reservedStart/reservedEnd bound the address range this module's
	// precompiles may live in. Design doc §6 fixes the native-transfer
	// precompile at 0x...FD; the range below simply documents that any
	// future precompile in this module must also land in the last byte of
	// the zero address, the same "legacy stateful precompile" range
	// coreth/luxfi-evm reserved for nativeAssetCall-style calls.
	reservedStart = common.HexToAddress("0x0000000000000000000000000000000000000000")
	reservedEnd   = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

// ReservedAddress returns true if addr falls within the address range this
// module is permitted to register precompiles in.
func ReservedAddress(addr common.Address) bool {
	return bytesCompare(addr, reservedStart) >= 0 && bytesCompare(addr, reservedEnd) <= 0
}

func bytesCompare(a, b common.Address) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// RegisterModule registers a stateful precompile module. Call from an
// init() in the owning package, matching luxfi/evm's convention.
func RegisterModule(m Module) error {
	if !ReservedAddress(m.Address) {
		return fmt.Errorf("registry: address %s not in the reserved range", m.Address)
	}
	for _, existing := range registeredModules {
		if existing.ConfigKey == m.ConfigKey {
			return fmt.Errorf("registry: config key %q already registered", m.ConfigKey)
		}
		if existing.Address == m.Address {
			return fmt.Errorf("registry: address %s already registered", m.Address)
		}
	}
	registeredModules = append(registeredModules, m)
	sort.Sort(moduleArray(registeredModules))
	return nil
}

// GetModuleByAddress returns the module registered at addr, if any.
func GetModuleByAddress(addr common.Address) (Module, bool) {
	for _, m := range registeredModules {
		if m.Address == addr {
			return m, true
		}
	}
	return Module{}, false
}

// RegisteredModules returns every registered module in deterministic
// (address-ascending) order.
func RegisteredModules() []Module {
	return registeredModules
}

func init() {
	if err := RegisterModule(NewModule("nativeTransfer", nativetransfer.Address, nativetransfer.NewContract())); err != nil {
		panic(err)
	}
}
