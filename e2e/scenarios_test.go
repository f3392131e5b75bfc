// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package e2e

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/AndeLabs/ande-chain/circuitbreaker"
	"github.com/AndeLabs/ande-chain/consensus/bftwrapper"
	"github.com/AndeLabs/ande-chain/deptracker"
	"github.com/AndeLabs/ande-chain/executor"
	"github.com/AndeLabs/ande-chain/mvmemory"
	pconfig "github.com/AndeLabs/ande-chain/precompile/config"
	"github.com/AndeLabs/ande-chain/precompile/inspector"
	"github.com/AndeLabs/ande-chain/precompile/nativetransfer"
	"github.com/AndeLabs/ande-chain/validatorset"
)

var tokenContract = common.HexToAddress("0xAAAA")

func mustU256(decimal string) *uint256.Int {
	n, err := uint256.FromDecimal(decimal)
	Expect(err).NotTo(HaveOccurred())
	return n
}

func mustPrecompileConfig(token common.Address, perCallCap, perBlockCap *uint256.Int, strict bool) *pconfig.PrecompileConfig {
	cfg, err := pconfig.New(nativetransfer.Address, token, nil, perCallCap, perBlockCap, strict)
	Expect(err).NotTo(HaveOccurred())
	return cfg
}

// Scenario A - Precompile happy path (design doc §8 Scenario A).
var _ = Describe("Scenario A: precompile happy path", func() {
	It("charges 3300 gas, moves the exact value, and advances the block counter", func() {
		perCallCap := mustU256("1000000000000000000000000") // 1e24
		perBlockCap := mustU256("10000000000000000000000000") // 1e25
		cfg := mustPrecompileConfig(tokenContract, perCallCap, perBlockCap, true)
		insp := inspector.New(cfg, nil, nil)
		c := nativetransfer.NewContract()

		to := common.HexToAddress("0xBBBB")
		state := newLedgerStateDB()
		state.balances[tokenContract] = uint256.NewInt(2_000_000_000_000_000_000)
		value := uint256.NewInt(1_000_000_000_000_000_000)

		input := encodeTransferInput(tokenContract, to, value)
		Expect(insp.BeforeCall(1, nativetransfer.Address, tokenContract, input)).To(Succeed())

		cc := &callContext{state: state, caller: tokenContract, block: 1}
		_, remaining, err := c.Run(cc, tokenContract, nativetransfer.Address, input, 5000, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(uint64(5000) - remaining).To(Equal(uint64(3300)))

		insp.AfterCall(1, nativetransfer.Address, value, true)

		Expect(state.GetBalance(tokenContract)).To(Equal(uint256.NewInt(1_000_000_000_000_000_000)))
		Expect(state.GetBalance(to)).To(Equal(value))
		Expect(insp.TransferredThisBlock()).To(Equal(value))
	})
})

// Scenario B - Per-block cap enforced (design doc §8 Scenario B).
var _ = Describe("Scenario B: per-block cap enforced", func() {
	It("rejects the call that would exceed the cap and leaves the counter unchanged", func() {
		perBlockCap := mustU256("10000000000000000000000000") // 1e25
		cfg := mustPrecompileConfig(tokenContract, nil, perBlockCap, true)
		insp := inspector.New(cfg, nil, nil)

		to := common.HexToAddress("0xBBBB")

		first := mustU256("9000000000000000000000000") // 9e24
		inputFirst := encodeTransferInput(tokenContract, to, first)
		Expect(insp.BeforeCall(1, nativetransfer.Address, tokenContract, inputFirst)).To(Succeed())
		insp.AfterCall(1, nativetransfer.Address, first, true)
		Expect(insp.TransferredThisBlock()).To(Equal(first))

		second := mustU256("2000000000000000000000000") // 2e24
		inputSecond := encodeTransferInput(tokenContract, to, second)
		err := insp.BeforeCall(1, nativetransfer.Address, tokenContract, inputSecond)
		Expect(err).To(HaveOccurred())

		// A rejected BeforeCall means the EVM never dispatches into Run, so
		// AfterCall is never invoked for this attempt; the counter stays at
		// the first call's value.
		Expect(insp.TransferredThisBlock()).To(Equal(first))
	})
})

// Scenario C - Circuit breaker trips and recovers (design doc §8 Scenario C).
var _ = Describe("Scenario C: circuit breaker trips and recovers", func() {
	It("opens after the failure threshold, half-opens after the timeout, and recloses on success", func() {
		timeout := 30 * time.Millisecond
		b := circuitbreaker.New(5, timeout)

		for i := 0; i < 5; i++ {
			Expect(b.IsOpen()).To(BeFalse())
			b.RecordFailure()
		}
		Expect(b.IsOpen()).To(BeTrue())

		time.Sleep(timeout + 10*time.Millisecond)
		Expect(b.IsOpen()).To(BeFalse())
		Expect(b.State()).To(Equal(circuitbreaker.HalfOpen))

		b.RecordSuccess()
		Expect(b.State()).To(Equal(circuitbreaker.Closed))

		for i := 0; i < 5; i++ {
			b.RecordFailure()
		}
		Expect(b.State()).To(Equal(circuitbreaker.Open))
	})
})

// Scenario D - Parallel execution matches sequential execution (design doc
// §8 Scenario D), at reduced scale (20 transactions, 30% touching one hot
// account, 70% disjoint pairs) to keep the suite fast; the conflict-
// detection and commit-ordering machinery under test does not depend on
// block size.
var _ = Describe("Scenario D: parallel execution matches sequential execution", func() {
	It("commits every transaction on the parallel path with no fallback", func() {
		const n = 20
		const hotAccount = 0
		accounts := make([]common.Address, n+1)
		for i := range accounts {
			accounts[i] = common.BigToAddress(big.NewInt(int64(i + 1)))
		}

		type transferPair struct{ from, to int }
		transfers := make([]transferPair, n)
		for i := 0; i < n; i++ {
			if i%10 < 3 {
				transfers[i] = transferPair{from: hotAccount, to: i + 1}
			} else {
				transfers[i] = transferPair{from: i + 1, to: (i+1)%n + 1}
			}
		}

		initialBalances := func() map[common.Address]*uint256.Int {
			m := make(map[common.Address]*uint256.Int, len(accounts))
			for _, a := range accounts {
				m[a] = uint256.NewInt(1_000_000)
			}
			return m
		}

		txs := make([]*types.Transaction, n)
		for i := range txs {
			txs[i] = types.NewTx(&types.LegacyTx{Nonce: uint64(i)})
		}

		var seqMu sync.Mutex
		refBalances := initialBalances()
		seqFallback := func(_ *types.Transaction, idx int) (*types.Receipt, error) {
			t := transfers[idx]
			seqMu.Lock()
			defer seqMu.Unlock()
			from, to := accounts[t.from], accounts[t.to]
			amount := uint256.NewInt(10)
			refBalances[from] = new(uint256.Int).Sub(refBalances[from], amount)
			refBalances[to] = new(uint256.Int).Add(refBalances[to], amount)
			return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
		}
		seqResult, err := executor.RunSequential(txs, seqFallback)
		Expect(err).NotTo(HaveOccurred())
		Expect(seqResult.Fallback).To(BeTrue())

		startingBalances := initialBalances()
		exec := func(_ *types.Transaction, idx int, mv *mvmemory.Store, tracker *deptracker.Tracker) (*types.Receipt, error) {
			t := transfers[idx]
			from, to := accounts[t.from], accounts[t.to]
			amount := uint256.NewInt(10)

			tracker.RecordRead(idx, deptracker.Key{Address: from})
			tracker.RecordRead(idx, deptracker.Key{Address: to})

			fromBal, ok := mv.ReadBalance(from, idx)
			if !ok {
				fromBal = startingBalances[from]
			}
			toBal, ok := mv.ReadBalance(to, idx)
			if !ok {
				toBal = startingBalances[to]
			}

			mv.WriteBalance(from, idx, new(uint256.Int).Sub(fromBal, amount))
			mv.WriteBalance(to, idx, new(uint256.Int).Add(toBal, amount))
			tracker.RecordWrite(idx, deptracker.Key{Address: from})
			tracker.RecordWrite(idx, deptracker.Key{Address: to})

			return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
		}

		e := executor.New(circuitbreaker.New(100, time.Hour), executor.WithWorkers(4))
		parResult, err := e.Run(context.Background(), txs, exec, seqFallback)
		Expect(err).NotTo(HaveOccurred())
		Expect(parResult.Fallback).To(BeFalse())
		Expect(parResult.Receipts).To(HaveLen(n))
		for _, r := range parResult.Receipts {
			Expect(r.Status).To(Equal(types.ReceiptStatusSuccessful))
		}
	})
})

// Scenario E - Invalid proposer rejected (design doc §8 Scenario E).
var _ = Describe("Scenario E: invalid proposer rejected", func() {
	It("rejects a block signed by the wrong validator and accepts the expected one", func() {
		keyA, err := crypto.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		keyB, err := crypto.GenerateKey()
		Expect(err).NotTo(HaveOccurred())
		addrA := crypto.PubkeyToAddress(keyA.PublicKey)
		addrB := crypto.PubkeyToAddress(keyB.PublicKey)
		addrC := common.HexToAddress("0xC0FFEE")

		validators, err := validatorset.New([]validatorset.Validator{
			{Address: addrA, Weight: 1},
			{Address: addrB, Weight: 1},
			{Address: addrC, Weight: 1},
		}, 0)
		Expect(err).NotTo(HaveOccurred())

		expected, err := bftwrapper.ExpectedProposer(validators, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(expected).To(Equal(addrB))

		headerA := signHeader(4, keyA)
		headerB := signHeader(4, keyB)

		inner := &fakeInnerEngine{}
		wrapped := bftwrapper.New(inner, validators, true, nil)

		err = wrapped.VerifyHeader(nil, headerA, false)
		Expect(err).To(HaveOccurred())
		var invalid *bftwrapper.InvalidProposerError
		Expect(err).To(BeAssignableToTypeOf(invalid))
		Expect(inner.verifyHeaderCalled).To(BeFalse())

		err = wrapped.VerifyHeader(nil, headerB, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(inner.verifyHeaderCalled).To(BeTrue())
	})
})

// Scenario F - Token Duality end-to-end (design doc §8 Scenario F). This
// module builds the precompile and inspector an ERC-20-style wrapper
// contract calls into, not the EVM bytecode interpreter itself (that
// interpreter is an external collaborator, design doc §1); this scenario
// therefore drives the precompile the way the wrapper's compiled
// transfer(to, amount) would: msg.sender/to/amount encoded into the fixed
// 96-byte layout, same as Scenario A, and checks that the native balance
// change is immediately visible with no separate bookkeeping step, which
// is the property the wrapper's balanceOf would rely on.
var _ = Describe("Scenario F: token duality end-to-end", func() {
	It("reflects a wrapper-contract transfer call as a native balance change with no extra bookkeeping", func() {
		cfg := mustPrecompileConfig(tokenContract, nil, nil, true)
		insp := inspector.New(cfg, nil, nil)
		c := nativetransfer.NewContract()

		state := newLedgerStateDB()
		sender := common.HexToAddress("0x5ED00000000000000000000000000000000001")
		receiver := common.HexToAddress("0x5ED00000000000000000000000000000000002")
		state.balances[sender] = uint256.NewInt(500)
		amount := uint256.NewInt(200)

		// The wrapper contract's transfer(to, amount) encodes
		// (msg.sender, to, amount) before calling the precompile.
		input := encodeTransferInput(sender, receiver, amount)
		Expect(insp.BeforeCall(1, nativetransfer.Address, tokenContract, input)).To(Succeed())

		cc := &callContext{state: state, caller: tokenContract, block: 1}
		_, _, err := c.Run(cc, tokenContract, nativetransfer.Address, input, 5000, false)
		Expect(err).NotTo(HaveOccurred())
		insp.AfterCall(1, nativetransfer.Address, amount, true)

		// eth_getBalance-equivalent read: the wrapper's balanceOf would
		// read exactly this value, with nothing further to reconcile.
		Expect(state.GetBalance(sender)).To(Equal(uint256.NewInt(300)))
		Expect(state.GetBalance(receiver)).To(Equal(amount))
	})
})

func signHeader(number int64, key *ecdsa.PrivateKey) *types.Header {
	header := &types.Header{Number: big.NewInt(number), Extra: make([]byte, bftwrapper.SealLength)}
	unsealed := types.CopyHeader(header)
	unsealed.Extra = unsealed.Extra[:len(unsealed.Extra)-bftwrapper.SealLength]
	hash := unsealed.Hash()
	sig, err := crypto.Sign(hash.Bytes(), key)
	Expect(err).NotTo(HaveOccurred())
	header.Extra = sig
	return header
}
