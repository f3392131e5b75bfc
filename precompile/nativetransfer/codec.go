// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package nativetransfer

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/AndeLabs/ande-chain/vmerrs"
)

// InputLength is the exact byte length a native-transfer call must supply:
// from (32, right-aligned 20-byte address) + to (32) + value (32 big-endian
// U256), per design doc §4.1.
const InputLength = 96

// decodedInput is the parsed form of a 96-byte native-transfer call.
type decodedInput struct {
	From  common.Address
	To    common.Address
	Value *uint256.Int
}

// decodeInput parses a 96-byte precompile input. It never returns a partial
// result: on any length mismatch it returns vmerrs.ErrInvalidInputLength.
func decodeInput(input []byte) (decodedInput, error) {
	if len(input) != InputLength {
		return decodedInput{}, vmerrs.ErrInvalidInputLength
	}

	from := common.BytesToAddress(input[0:32])
	to := common.BytesToAddress(input[32:64])
	value := new(uint256.Int).SetBytes(input[64:96])

	return decodedInput{From: from, To: to, Value: value}, nil
}

// encodeInput is the inverse of decodeInput, used by tests asserting the
// round-trip property in the spec's testable properties section.
func encodeInput(from, to common.Address, value *uint256.Int) []byte {
	out := make([]byte, InputLength)
	copy(out[12:32], from.Bytes())
	copy(out[44:64], to.Bytes())
	valueBytes := value.Bytes32()
	copy(out[64:96], valueBytes[:])
	return out
}
