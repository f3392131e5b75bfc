// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "github.com/luxfi/geth/core/types"

// Result is the ordered list of per-transaction execution results design
// doc §4.6 requires to be "equivalent to sequential execution of the same
// ordered list." Fallback reports whether the sequential path produced
// this result (design doc §7: RetryExhausted/MVMemoryFault/CircuitOpen all
// "surface as: block succeeds", never as a user-visible error).
type Result struct {
	Receipts []*types.Receipt
	Fallback bool
}
