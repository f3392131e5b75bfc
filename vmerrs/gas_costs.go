// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package vmerrs

const (
	// NativeTransferBaseGas is the base gas cost of the Token Duality
	// native-transfer precompile.
	NativeTransferBaseGas uint64 = 3000

	// NativeTransferWordGas is the additional gas cost per 32-byte input
	// word charged on top of NativeTransferBaseGas.
	NativeTransferWordGas uint64 = 100

	// NativeTransferMaxGas is a defense-in-depth absolute ceiling on the
	// gas the native-transfer precompile will ever charge, independent of
	// input length.
	NativeTransferMaxGas uint64 = 50_000
)