// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package mvmemory

import "github.com/holiman/uint256"

// VersionedValue is a single entry in a key's version history, design doc
// §3: "{ version: usize, value: U256 }". Version is the transaction index
// within the block (insertion order).
type VersionedValue struct {
	Version int
	Value   *uint256.Int
}

// versionHistory is kept in ascending Version order and is the unit that
// each LRU sub-store caches per key.
type versionHistory []VersionedValue

// insert appends v in ascending order. The normal path appends at the end
// (monotonically increasing versions); out-of-order insertion is handled
// defensively by a binary search, matching design doc §4.3's "insert in
// order if out-of-order execution is ever introduced."
func (h versionHistory) insert(v VersionedValue) versionHistory {
	if len(h) == 0 || v.Version >= h[len(h)-1].Version {
		return append(h, v)
	}
	idx := sortSearch(h, v.Version)
	h = append(h, VersionedValue{})
	copy(h[idx+1:], h[idx:])
	h[idx] = v
	return h
}

// truncateToCap drops the oldest entries so len(h) <= cap, design doc
// §4.3's MAX_VERSIONS_PER_KEY bound.
func (h versionHistory) truncateToCap(cap int) versionHistory {
	if len(h) <= cap {
		return h
	}
	drop := len(h) - cap
	return append(versionHistory{}, h[drop:]...)
}

// readAt performs the largest-predecessor lookup from design doc §4.3: the
// value with the largest version' <= v, or ok=false if none exists.
func (h versionHistory) readAt(v int) (*uint256.Int, bool) {
	best := -1
	for i, entry := range h {
		if entry.Version <= v {
			best = i
		} else {
			break
		}
	}
	if best == -1 {
		return nil, false
	}
	return h[best].Value, true
}

func sortSearch(h versionHistory, version int) int {
	lo, hi := 0, len(h)
	for lo < hi {
		mid := (lo + hi) / 2
		if h[mid].Version < version {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
