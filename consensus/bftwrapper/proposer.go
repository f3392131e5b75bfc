// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package bftwrapper

import (
	"github.com/luxfi/geth/common"

	"github.com/AndeLabs/ande-chain/validatorset"
)

// ExpectedProposer implements design doc §4.9's weighted round-robin
// schedule: flatten the validator list into weight_i repetitions of
// address_i in insertion order, then index by n mod len(seq). The
// contract — "given (validator_set, n) the proposer address is a pure
// function" — holds regardless of how seq is built, which is what lets an
// implementation later swap in a VRF without changing this call's
// signature (design doc §9).
func ExpectedProposer(set *validatorset.Store, blockNumber uint64) (common.Address, error) {
	seq, err := schedule(set)
	if err != nil {
		return common.Address{}, err
	}
	return seq[blockNumber%uint64(len(seq))], nil
}

func schedule(set *validatorset.Store) ([]common.Address, error) {
	validators := set.Validators()
	if len(validators) == 0 {
		return nil, validatorset.ErrEmpty
	}
	var seq []common.Address
	for _, v := range validators {
		for i := uint64(0); i < v.Weight; i++ {
			seq = append(seq, v.Address)
		}
	}
	return seq, nil
}
