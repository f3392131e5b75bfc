// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validatorset implements the Validator Set Store (design doc
// component 10): an in-memory, epoch-indexed validator list with a
// Byzantine-threshold check, refreshed atomically at epoch boundaries.
//
// The two-field Validator shape is grounded on luxfi/evm's
// consensus.Context.Validator (there keyed by NodeID for P2P identity;
// here by Address, since proposer identity in this rollup is an EVM
// address recovered from a block signature). The weighted-supermajority
// check mirrors the quorum arithmetic in
// precompile/contracts/warp.ValidatorState and warp/aggregator.Aggregator,
// both of which compare an accumulated weight against a fraction of total
// validator weight.
package validatorset

import (
	"errors"
	"sync/atomic"

	"github.com/luxfi/geth/common"
)

// Validator is a single weighted participant, design doc §3. Weight must
// be > 0.
type Validator struct {
	Address common.Address
	Weight  uint64
}

// ErrEmpty is returned by operations that require a non-empty validator
// set (design doc §7 ValidatorSetEmpty, "block rejected").
var ErrEmpty = errors.New("validator set: empty")

// ErrZeroWeight is returned when constructing a set containing a validator
// with weight 0.
var ErrZeroWeight = errors.New("validator set: validator weight must be > 0")

// snapshot is the immutable published state swapped atomically at epoch
// boundaries (design doc §5: "reader snapshot per block; writer only at
// epoch boundary under a short exclusive lock").
type snapshot struct {
	validators []Validator
	byAddress  map[common.Address]int
	epoch      uint64
	totalWeight uint64
}

// Store is the Validator Set Store.
type Store struct {
	current atomic.Pointer[snapshot]
}

// New constructs a Store from an initial validator list and epoch.
func New(validators []Validator, epoch uint64) (*Store, error) {
	snap, err := buildSnapshot(validators, epoch)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(snap)
	return s, nil
}

func buildSnapshot(validators []Validator, epoch uint64) (*snapshot, error) {
	if len(validators) == 0 {
		return nil, ErrEmpty
	}
	byAddress := make(map[common.Address]int, len(validators))
	var total uint64
	cp := make([]Validator, len(validators))
	for i, v := range validators {
		if v.Weight == 0 {
			return nil, ErrZeroWeight
		}
		cp[i] = v
		byAddress[v.Address] = i
		total += v.Weight
	}
	return &snapshot{validators: cp, byAddress: byAddress, epoch: epoch, totalWeight: total}, nil
}

// Len returns the number of validators in the current set.
func (s *Store) Len() int {
	return len(s.current.Load().validators)
}

// TotalWeight returns the cached sum of every validator's weight.
func (s *Store) TotalWeight() uint64 {
	return s.current.Load().totalWeight
}

// Epoch returns the current epoch number.
func (s *Store) Epoch() uint64 {
	return s.current.Load().epoch
}

// GetByAddress returns the validator at address, if present.
func (s *Store) GetByAddress(address common.Address) (Validator, bool) {
	snap := s.current.Load()
	idx, ok := snap.byAddress[address]
	if !ok {
		return Validator{}, false
	}
	return snap.validators[idx], true
}

// GetByIndex returns the validator at the given insertion-order index.
func (s *Store) GetByIndex(i int) (Validator, bool) {
	snap := s.current.Load()
	if i < 0 || i >= len(snap.validators) {
		return Validator{}, false
	}
	return snap.validators[i], true
}

// Threshold returns floor(2*W/3) + 1, the Byzantine-safe supermajority
// weight (design doc §3).
func (s *Store) Threshold() uint64 {
	w := s.current.Load().totalWeight
	return 2*w/3 + 1
}

// HasSupermajority reports whether weight meets or exceeds Threshold().
func (s *Store) HasSupermajority(weight uint64) bool {
	return weight >= s.Threshold()
}

// Update atomically replaces the validator set at an epoch boundary
// (design doc §4.10). Calling Update(sameSet, sameEpoch) twice is a no-op,
// per the spec's round-trip/idempotence testable property — but since each
// call still rebuilds and republishes a snapshot, "no-op" refers to the
// observable result, not to skipping the swap.
func (s *Store) Update(validators []Validator, epoch uint64) error {
	snap, err := buildSnapshot(validators, epoch)
	if err != nil {
		return err
	}
	s.current.Store(snap)
	return nil
}

// Validators returns a copy of the current ordered validator list, used by
// the proposer-selection schedule in consensus/bftwrapper.
func (s *Store) Validators() []Validator {
	snap := s.current.Load()
	out := make([]Validator, len(snap.validators))
	copy(out, snap.validators)
	return out
}
