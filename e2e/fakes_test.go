// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package e2e

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	"github.com/AndeLabs/ande-chain/interfaces"
	"github.com/AndeLabs/ande-chain/precompile/contract"
	"github.com/AndeLabs/ande-chain/vmerrs"
)

// encodeTransferInput mirrors precompile/nativetransfer's unexported
// encodeInput: 32-byte left-padded from, 32-byte left-padded to, 32-byte
// big-endian value.
func encodeTransferInput(from, to common.Address, value *uint256.Int) []byte {
	out := make([]byte, 96)
	copy(out[12:32], from.Bytes())
	copy(out[44:64], to.Bytes())
	valueBytes := value.Bytes32()
	copy(out[64:96], valueBytes[:])
	return out
}

// ledgerStateDB is a minimal in-memory contract.StateDB, grounded on
// precompile/nativetransfer's own fakeStateDB test harness, shared across
// every scenario in this suite that drives the precompile directly.
type ledgerStateDB struct {
	balances  map[common.Address]*uint256.Int
	snapshots []map[common.Address]*uint256.Int
}

func newLedgerStateDB() *ledgerStateDB {
	return &ledgerStateDB{balances: make(map[common.Address]*uint256.Int)}
}

func (l *ledgerStateDB) GetBalance(addr common.Address) *uint256.Int {
	if b, ok := l.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return uint256.NewInt(0)
}

func (l *ledgerStateDB) SubBalance(addr common.Address, v *uint256.Int, _ ...string) error {
	bal := l.GetBalance(addr)
	if bal.Cmp(v) < 0 {
		return vmerrs.ErrInsufficientBalance
	}
	l.balances[addr] = new(uint256.Int).Sub(bal, v)
	return nil
}

func (l *ledgerStateDB) AddBalance(addr common.Address, v *uint256.Int, _ ...string) error {
	l.balances[addr] = new(uint256.Int).Add(l.GetBalance(addr), v)
	return nil
}

func (l *ledgerStateDB) GetNonce(common.Address) uint64 { return 0 }
func (l *ledgerStateDB) Exist(common.Address) bool      { return true }

func (l *ledgerStateDB) Snapshot() int {
	snap := make(map[common.Address]*uint256.Int, len(l.balances))
	for k, v := range l.balances {
		snap[k] = new(uint256.Int).Set(v)
	}
	l.snapshots = append(l.snapshots, snap)
	return len(l.snapshots) - 1
}

func (l *ledgerStateDB) RevertToSnapshot(id int) {
	l.balances = l.snapshots[id]
	l.snapshots = l.snapshots[:id]
}

type callContext struct {
	state    *ledgerStateDB
	caller   common.Address
	readOnly bool
	block    uint64
}

func (c *callContext) GetStateDB() contract.StateDB           { return c.state }
func (c *callContext) GetBlockContext() contract.BlockContext { return blockContext{c.block} }
func (c *callContext) Caller() common.Address                 { return c.caller }
func (c *callContext) ReadOnly() bool                         { return c.readOnly }

type blockContext struct{ number uint64 }

func (b blockContext) Number() uint64    { return b.number }
func (b blockContext) Timestamp() uint64 { return 0 }

// fakeInnerEngine implements interfaces.Engine, recording whether
// VerifyHeader was delegated to, for asserting that an invalid-proposer
// rejection never reaches the inner consensus (design doc §4.9).
type fakeInnerEngine struct {
	verifyHeaderCalled bool
	err                error
}

func (f *fakeInnerEngine) Author(*types.Header) (common.Address, error) { return common.Address{}, nil }
func (f *fakeInnerEngine) VerifyHeader(interfaces.ChainHeaderReader, *types.Header, bool) error {
	f.verifyHeaderCalled = true
	return f.err
}
func (f *fakeInnerEngine) VerifyHeaders(interfaces.ChainHeaderReader, []*types.Header, []bool) (chan<- struct{}, <-chan error) {
	return nil, nil
}
func (f *fakeInnerEngine) VerifyUncles(interfaces.ChainReader, *types.Block) error { return nil }
func (f *fakeInnerEngine) Prepare(interfaces.ChainHeaderReader, *types.Header) error { return nil }
func (f *fakeInnerEngine) Finalize(interfaces.ChainHeaderReader, *types.Header, interfaces.StateDB, []*types.Transaction, []*types.Header) (*types.Block, error) {
	return nil, nil
}
func (f *fakeInnerEngine) FinalizeAndAssemble(interfaces.ChainHeaderReader, *types.Header, interfaces.StateDB, []*types.Transaction, []*types.Header, []*types.Receipt) (*types.Block, error) {
	return nil, nil
}
func (f *fakeInnerEngine) Seal(interfaces.ChainHeaderReader, *types.Block, chan<- *types.Block, <-chan struct{}) error {
	return nil
}
func (f *fakeInnerEngine) SealHash(*types.Header) common.Hash        { return common.Hash{} }
func (f *fakeInnerEngine) CalcDifficulty(interfaces.ChainHeaderReader, uint64, *types.Header) *big.Int {
	return big.NewInt(1)
}
func (f *fakeInnerEngine) Close() error { return nil }
