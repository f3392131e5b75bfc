// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package evmfactory

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	pconfig "github.com/AndeLabs/ande-chain/precompile/config"
	"github.com/AndeLabs/ande-chain/precompile/inspector"
	"github.com/AndeLabs/ande-chain/precompile/nativetransfer"
)

type fakeInner struct{}

func TestPrecompileOverrideFindsRegisteredModule(t *testing.T) {
	f := New[fakeInner](fakeInner{}, inspector.New(nil, nil, nil), nil)
	contract, ok := f.PrecompileOverride(nativetransfer.Address)
	require.True(t, ok)
	require.NotNil(t, contract)
}

func TestPrecompileOverrideMissesUnknownAddress(t *testing.T) {
	f := New[fakeInner](fakeInner{}, inspector.New(nil, nil, nil), nil)
	_, ok := f.PrecompileOverride(common.HexToAddress("0xDEAD"))
	require.False(t, ok)
}

func TestMEVEnabledReflectsConstruction(t *testing.T) {
	f := New[fakeInner](fakeInner{}, inspector.New(nil, nil, nil), nil)
	require.False(t, f.MEVEnabled())
}

func TestBeforeCallDelegatesToInspector(t *testing.T) {
	allowed := common.HexToAddress("0xAAAA")
	cfg, err := pconfig.New(nativetransfer.Address, allowed, nil, nil, nil, true)
	require.NoError(t, err)
	insp := inspector.New(cfg, nil, nil)
	f := New[fakeInner](fakeInner{}, insp, nil)

	err = f.BeforeCall(1, nativetransfer.Address, common.HexToAddress("0xBEEF"), make([]byte, 96))
	require.Error(t, err)

	err = f.BeforeCall(1, nativetransfer.Address, allowed, make([]byte, 96))
	require.NoError(t, err)
}

func TestAfterCallDelegatesToInspector(t *testing.T) {
	cfg, err := pconfig.New(nativetransfer.Address, common.HexToAddress("0xAAAA"), nil, nil, nil, false)
	require.NoError(t, err)
	insp := inspector.New(cfg, nil, nil)
	f := New[fakeInner](fakeInner{}, insp, nil)
	f.AfterCall(1, nativetransfer.Address, uint256.NewInt(5), true)
	require.True(t, insp.TransferredThisBlock().Eq(uint256.NewInt(5)))
}
