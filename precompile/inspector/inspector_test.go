// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package inspector

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	pconfig "github.com/AndeLabs/ande-chain/precompile/config"
	"github.com/AndeLabs/ande-chain/vmerrs"
)

var precompileAddr = common.HexToAddress("0x00000000000000000000000000000000000000FD")

func newTestConfig(t *testing.T, perCallCap, perBlockCap *uint256.Int, strict bool) *pconfig.PrecompileConfig {
	t.Helper()
	allowed := common.HexToAddress("0xAAAA")
	cfg, err := pconfig.New(precompileAddr, allowed, nil, perCallCap, perBlockCap, strict)
	require.NoError(t, err)
	return cfg
}

func TestBeforeCallIgnoresOtherTargets(t *testing.T) {
	cfg := newTestConfig(t, nil, nil, true)
	insp := New(cfg, nil, nil)
	err := insp.BeforeCall(1, common.HexToAddress("0xCAFE"), common.HexToAddress("0x1234"), []byte("anything"))
	require.NoError(t, err)
}

func TestBeforeCallUnauthorizedCaller(t *testing.T) {
	cfg := newTestConfig(t, nil, nil, true)
	insp := New(cfg, nil, nil)
	err := insp.BeforeCall(1, precompileAddr, common.HexToAddress("0xBEEF"), make([]byte, 96))
	require.ErrorIs(t, err, vmerrs.ErrUnauthorizedCaller)
}

func TestBeforeCallInvalidInputLength(t *testing.T) {
	cfg := newTestConfig(t, nil, nil, true)
	insp := New(cfg, nil, nil)
	err := insp.BeforeCall(1, precompileAddr, cfg.TokenContractAddress, make([]byte, 95))
	require.ErrorIs(t, err, vmerrs.ErrInvalidInputLength)
}

func TestBeforeCallPerCallCap(t *testing.T) {
	cap := uint256.NewInt(1000)
	cfg := newTestConfig(t, cap, nil, true)
	insp := New(cfg, nil, nil)

	okInput := make([]byte, 96)
	okVal := uint256.NewInt(1000).Bytes32()
	copy(okInput[64:96], okVal[:])
	require.NoError(t, insp.BeforeCall(1, precompileAddr, cfg.TokenContractAddress, okInput))

	overInput := make([]byte, 96)
	overVal := uint256.NewInt(1001).Bytes32()
	copy(overInput[64:96], overVal[:])
	err := insp.BeforeCall(1, precompileAddr, cfg.TokenContractAddress, overInput)
	require.ErrorIs(t, err, vmerrs.ErrPerCallCapExceeded)
}

func TestPerBlockCapAndCounterReset(t *testing.T) {
	perBlockCap := uint256.NewInt(10)
	cfg := newTestConfig(t, nil, perBlockCap, true)
	insp := New(cfg, nil, nil)
	caller := cfg.TokenContractAddress

	valueInput := func(v uint64) []byte {
		b := make([]byte, 96)
		vb := uint256.NewInt(v).Bytes32()
		copy(b[64:96], vb[:])
		return b
	}

	require.NoError(t, insp.BeforeCall(1, precompileAddr, caller, valueInput(9)))
	insp.AfterCall(1, precompileAddr, uint256.NewInt(9), true)
	require.True(t, insp.TransferredThisBlock().Eq(uint256.NewInt(9)))

	err := insp.BeforeCall(1, precompileAddr, caller, valueInput(2))
	require.ErrorIs(t, err, vmerrs.ErrPerBlockCapExceeded)

	// New block resets the counter.
	require.NoError(t, insp.BeforeCall(2, precompileAddr, caller, valueInput(2)))
	require.True(t, insp.TransferredThisBlock().IsZero())
}

func TestZeroValueDoesNotAdvanceCounter(t *testing.T) {
	cfg := newTestConfig(t, nil, nil, true)
	insp := New(cfg, nil, nil)
	insp.AfterCall(1, precompileAddr, uint256.NewInt(0), true)
	require.True(t, insp.TransferredThisBlock().IsZero())
}
