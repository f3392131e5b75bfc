// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package inspector implements the Precompile Inspector (design doc
// component 2): a pre-call observer the EVM Factory Wrapper installs on
// every CALL/DELEGATECALL/STATICCALL, enforcing allow-list and cap checks
// before the native-transfer precompile ever dispatches.
//
// The structured-warning-plus-counter telemetry pattern is grounded on
// luxfi/evm's precompile/contracts/warp package, which pairs every
// security-relevant rejection with both a log.Warn call and a Prometheus
// counter.
package inspector

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	pconfig "github.com/AndeLabs/ande-chain/precompile/config"
	"github.com/AndeLabs/ande-chain/vmerrs"
)

// Inspector holds the block-scoped counter state from design doc §3
// ("Precompile inspector state"). Clone gives a speculative execution its
// own Inspector instance (design doc §5: "the parallel executor does not
// share an inspector across workers"); the executor package itself creates
// no inspectors. The EVM Factory Wrapper holds the instance
// nodebuilder.Build constructs.
type Inspector struct {
	mu     sync.Mutex
	cfg    *pconfig.PrecompileConfig
	logger log.Logger
	metric *Metrics

	transferredThisBlock *uint256.Int
	currentBlock         uint64
}

// Metrics is the small counter surface the inspector increments on cap
// violations, gathered by the ambient metrics package (design doc §6,
// Prometheus wiring).
type Metrics struct {
	UnauthorizedCaller  func()
	InvalidInputLength  func()
	PerCallCapExceeded  func()
	PerBlockCapExceeded func()
}

// New constructs an Inspector bound to cfg. logger and metrics may be nil
// in tests; a nil logger falls back to log.Root(), a nil Metrics performs
// no counting.
func New(cfg *pconfig.PrecompileConfig, logger log.Logger, metrics *Metrics) *Inspector {
	if logger == nil {
		logger = log.Root()
	}
	if metrics == nil {
		metrics = &Metrics{
			UnauthorizedCaller:  func() {},
			InvalidInputLength:  func() {},
			PerCallCapExceeded:  func() {},
			PerBlockCapExceeded: func() {},
		}
	}
	return &Inspector{
		cfg:                  cfg,
		logger:               logger,
		metric:               metrics,
		transferredThisBlock: uint256.NewInt(0),
	}
}

// Clone returns a fresh Inspector sharing configuration and telemetry but
// with independent counter state, for the Parallel Executor's per-worker
// speculative-execution views (design doc §5).
func (i *Inspector) Clone() *Inspector {
	return New(i.cfg, i.logger, i.metric)
}

// BeforeCall is the pre-call hook. target is the address the current call
// frame dispatches to; blockNumber, caller and input carry the facts the
// checks need. It
// returns nil to allow the call to proceed into the precompile, or one of
// the §7 error kinds to force a revert.
//
// Step 1 (design doc §4.2): calls to any address other than the
// precompile's configured address return immediately with no overhead.
func (i *Inspector) BeforeCall(blockNumber uint64, target, caller common.Address, input []byte) error {
	if target != i.cfg.Address {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.resetIfNewBlock(blockNumber)

	if i.cfg.StrictValidation && !i.cfg.CallerAllowed(caller) {
		i.logger.Warn("native-transfer: unauthorized caller", "caller", caller, "precompile", target)
		i.metric.UnauthorizedCaller()
		return vmerrs.ErrUnauthorizedCaller
	}

	if len(input) != 96 {
		i.logger.Warn("native-transfer: invalid input length", "caller", caller, "len", len(input))
		i.metric.InvalidInputLength()
		return vmerrs.ErrInvalidInputLength
	}

	value := new(uint256.Int).SetBytes(input[64:96])
	if value.IsZero() {
		// Zero-value calls do not advance the counter (design doc §4.2).
		return nil
	}

	if i.cfg.StrictValidation && i.cfg.PerCallCap != nil && value.Cmp(i.cfg.PerCallCap) > 0 {
		i.logger.Warn("native-transfer: per-call cap exceeded", "caller", caller, "value", value, "cap", i.cfg.PerCallCap)
		i.metric.PerCallCapExceeded()
		return vmerrs.ErrPerCallCapExceeded
	}

	if i.cfg.StrictValidation && i.cfg.PerBlockCap != nil {
		projected := saturatingAdd(i.transferredThisBlock, value)
		if projected.Cmp(i.cfg.PerBlockCap) > 0 {
			i.logger.Warn("native-transfer: per-block cap exceeded", "caller", caller, "value", value,
				"transferred_this_block", i.transferredThisBlock, "cap", i.cfg.PerBlockCap)
			i.metric.PerBlockCapExceeded()
			return vmerrs.ErrPerBlockCapExceeded
		}
	}

	return nil
}

// AfterCall advances transferred_this_block on a successful call. callOK
// must be the final success/failure state of the surrounding call frame
// (design doc §4.2 step 7): a reverted call never advances the counter.
func (i *Inspector) AfterCall(blockNumber uint64, target common.Address, value *uint256.Int, callOK bool) {
	if target != i.cfg.Address || !callOK || value == nil || value.IsZero() {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.resetIfNewBlock(blockNumber)
	i.transferredThisBlock = saturatingAdd(i.transferredThisBlock, value)
}

// TransferredThisBlock returns the current block's cumulative transferred
// value, for tests and telemetry.
func (i *Inspector) TransferredThisBlock() *uint256.Int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return new(uint256.Int).Set(i.transferredThisBlock)
}

// resetIfNewBlock implements design doc §4.2 step 2. Caller must hold i.mu.
func (i *Inspector) resetIfNewBlock(blockNumber uint64) {
	if blockNumber != i.currentBlock {
		i.currentBlock = blockNumber
		i.transferredThisBlock = uint256.NewInt(0)
	}
}

// saturatingAdd returns a+b, clamped to the maximum uint256 value instead
// of wrapping, per design doc §3's "caps are validated with saturating
// arithmetic so that no addition can wrap."
func saturatingAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return sum
}
