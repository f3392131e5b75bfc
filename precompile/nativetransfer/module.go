// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package nativetransfer

import (
	pconfig "github.com/AndeLabs/ande-chain/precompile/config"
)

// Address is the fixed protocol address of the native-transfer precompile,
// design doc §6: last byte 0xFD, constant across networks. Deployments that
// set ANDE_PRECOMPILE_ADDRESS override this only at the registry/config
// layer; the contract itself is address-agnostic.
var Address = pconfig.DefaultAddress
