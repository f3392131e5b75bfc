// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package bftwrapper

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// InvalidProposerError is design doc §7's InvalidProposer kind: "block
// rejected", no local recovery.
type InvalidProposerError struct {
	Expected common.Address
	Actual   common.Address
}

func (e *InvalidProposerError) Error() string {
	return fmt.Sprintf("bftwrapper: invalid proposer: expected %s, got %s", e.Expected, e.Actual)
}
