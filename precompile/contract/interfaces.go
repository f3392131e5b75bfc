// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the narrow surface a stateful precompile needs
// from the surrounding EVM, adapted from the accessible-state/adapter shape
// luxfi/evm builds in core/precompile_overrider.go around vm.PrecompileEnvironment.
// Keeping it as a small local interface (instead of importing the concrete
// EVM) is what lets precompile/nativetransfer, precompile/inspector, and
// mev stay independent of whichever execution engine evmfactory wraps.
package contract

import (
	"github.com/luxfi/geth/common"
	"github.com/holiman/uint256"
)

// StateDB is the subset of interfaces.StateDB a stateful precompile needs
// to move native balance and read call-context state.
type StateDB interface {
	GetBalance(common.Address) *uint256.Int
	SubBalance(common.Address, *uint256.Int, ...string) error
	AddBalance(common.Address, *uint256.Int, ...string) error
	GetNonce(common.Address) uint64
	Exist(common.Address) bool
	Snapshot() int
	RevertToSnapshot(int)
}

// BlockContext exposes the handful of block-level facts a precompile or
// inspector needs without pulling in the whole header type.
type BlockContext interface {
	Number() uint64
	Timestamp() uint64
}

// AccessibleState is what the EVM hands to a StatefulPrecompiledContract on
// every Run call, mirroring luxfi/evm's accessibleStateAdapter.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext
	// Caller returns the immediate caller of the precompile (the address the
	// EVM's CALL opcode executed against), used for allow-list checks.
	Caller() common.Address
	// ReadOnly reports whether the current call frame is a STATICCALL (or a
	// nested call under one). The EVM's journal enforces static-call
	// isolation; nativetransfer.Contract.Run also refuses a non-zero
	// transfer when its own readOnly argument is set.
	ReadOnly() bool
}

// StatefulPrecompiledContract is the contract every precompile in this
// module implements, matching the (RequiredGas, Run) shape used throughout
// luxfi/evm's precompile/contracts/* packages.
type StatefulPrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(accessibleState AccessibleState, caller common.Address, addr common.Address, input []byte, suppliedGas uint64, readOnly bool) (ret []byte, remainingGas uint64, err error)
}

// Configurator configures a precompile module's runtime state (allow-lists,
// caps) from its process-wide config when the module is enabled, mirroring
// luxfi/evm's precompile/contracts/nativeminter.configurator.
type Configurator interface {
	Configure(cfg interface{}, state StateDB, blockCtx BlockContext) error
}
