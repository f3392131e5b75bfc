// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor implements the Block-STM Parallel Executor (design doc
// component 6): speculative execution of an ordered transaction list across
// worker goroutines, conflict detection via deptracker, and a mandatory
// fallback to sequential execution on retry exhaustion, internal fault, or
// an open circuit breaker.
//
// The goroutine-pool-over-a-shared-work-channel idiom is grounded on
// luxfi/evm's warp/aggregator.Aggregator, which fans work out across
// goroutines and collects results over a channel; golang.org/x/sync's
// errgroup (rather than a hand-rolled WaitGroup+error-channel, as the
// teacher's aggregator uses) supplies the "first error cancels the rest"
// semantics this scheduler's internal-fault path needs.
package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	"github.com/AndeLabs/ande-chain/circuitbreaker"
	"github.com/AndeLabs/ande-chain/deptracker"
	"github.com/AndeLabs/ande-chain/mvmemory"
)

// MaxRetries bounds the number of re-executions any single transaction may
// undergo before the whole block aborts the parallel path (design doc
// §4.6).
const MaxRetries = 3

// TxExecFunc executes tx speculatively at the given index against mv and
// records its read/write sets in tracker. It must be safe to call
// concurrently for distinct indices, and is called again (with tracker
// cleared for that index) on each retry.
type TxExecFunc func(tx *types.Transaction, txIndex int, mv *mvmemory.Store, tracker *deptracker.Tracker) (*types.Receipt, error)

// WorkerCount implements design doc §4.6's "max(4, num_cpus - 2)" formula.
// runtime.GOMAXPROCS(0) (rather than runtime.NumCPU()) is used so a
// container CPU quota set via go.uber.org/automaxprocs at process start is
// honored, not the host's full core count.
func WorkerCount() int {
	if n := runtime.GOMAXPROCS(0) - 2; n > 4 {
		return n
	}
	return 4
}

// Executor schedules transactions across workers, detects conflicts,
// retries, and falls back to sequential execution.
type Executor struct {
	breaker *circuitbreaker.Breaker
	workers int
	logger  log.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers overrides WorkerCount(), for tests that want deterministic
// small worker pools.
func WithWorkers(n int) Option {
	return func(e *Executor) { e.workers = n }
}

// WithLogger overrides the default root logger.
func WithLogger(l log.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New constructs an Executor guarded by breaker.
func New(breaker *circuitbreaker.Breaker, opts ...Option) *Executor {
	e := &Executor{
		breaker: breaker,
		workers: WorkerCount(),
		logger:  log.Root(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes txs, preferring the parallel path, and falls back to
// sequential execution per design doc §4.6's fallback triggers: retry
// exhaustion, an internal MV-Memory/worker error, or an open circuit
// breaker. Run itself never returns an error to the caller for any of
// those three cases — per design doc §7, they "surface as: block
// succeeds" via the fallback result, never a user-visible failure. A
// non-nil error return means fallback itself failed, which design doc §9
// treats as a correctness bug in the execution engine, not a parallel-path
// condition.
func (e *Executor) Run(ctx context.Context, txs []*types.Transaction, exec TxExecFunc, fallback SequentialExecFunc) (Result, error) {
	if e.breaker.IsOpen() {
		e.logger.Debug("executor: circuit open, running sequential", "txs", len(txs))
		return RunSequential(txs, fallback)
	}

	result, err := e.runParallel(ctx, txs, exec)
	if err != nil {
		e.logger.Warn("executor: parallel path failed, falling back to sequential", "err", err)
		e.breaker.RecordFailure()
		return RunSequential(txs, fallback)
	}

	e.breaker.RecordSuccess()
	return result, nil
}

// runParallel implements the Block-STM loop from design doc §4.6:
// speculative execution in parallel waves, sequential validation against
// already-committed writes, and bounded per-transaction retry.
func (e *Executor) runParallel(ctx context.Context, txs []*types.Transaction, exec TxExecFunc) (Result, error) {
	n := len(txs)
	mv := mvmemory.New()
	tracker := deptracker.New()

	receipts := make([]*types.Receipt, n)
	retries := make([]int, n)
	committed := make([]bool, n)

	pending := make([]int, n)
	for i := range pending {
		pending[i] = i
	}

	for len(pending) > 0 {
		receiptsThisWave, err := e.executeWave(ctx, txs, pending, mv, tracker, exec)
		if err != nil {
			return Result{}, err
		}
		for idx, r := range receiptsThisWave {
			receipts[idx] = r
		}

		var next []int
		blocked := false
		for _, i := range pending {
			if !blocked && e.validate(tracker, i) {
				committed[i] = true
				continue
			}
			// Once an index fails, every higher pending index is re-executed
			// as well, so commits stay in ascending index order.
			blocked = true
			tracker.Clear(i)
			retries[i]++
			if retries[i] > MaxRetries {
				return Result{}, fmt.Errorf("executor: tx %d exceeded max retries (%d)", i, MaxRetries)
			}
			next = append(next, i)
		}
		pending = next
	}

	for i := 0; i < n; i++ {
		if !committed[i] {
			return Result{}, fmt.Errorf("executor: tx %d never committed", i)
		}
	}

	return Result{Receipts: receipts, Fallback: false}, nil
}

// executeWave runs every index in pending across the worker pool,
// speculating against mv at version = txIndex.
func (e *Executor) executeWave(ctx context.Context, txs []*types.Transaction, pending []int, mv *mvmemory.Store, tracker *deptracker.Tracker, exec TxExecFunc) (map[int]*types.Receipt, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	results := make(map[int]*types.Receipt, len(pending))
	var mu sync.Mutex

	for _, i := range pending {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			receipt, err := exec(txs[i], i, mv, tracker)
			if err != nil {
				return fmt.Errorf("executor: tx %d: %w", i, err)
			}
			mu.Lock()
			results[i] = receipt
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// validate checks that no earlier, already-executed-in-this-wave-or-prior
// transaction's writes invalidate i's reads, per design doc §4.6's
// validator pass. Commit order is strictly ascending by index (design doc
// §4.6 "Determinism"): i only commits once every j < i has itself
// committed.
func (e *Executor) validate(tracker *deptracker.Tracker, i int) bool {
	for j := 0; j < i; j++ {
		if tracker.Conflicts(j, i) {
			return false
		}
	}
	return true
}
