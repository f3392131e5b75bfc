// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deptracker implements the per-transaction read/write set tracking
// the Parallel Executor uses for conflict detection (design doc component
// 4). Sets are github.com/deckarep/golang-set/v2, which gives the
// intersection/union operations the §3 conflict rule needs directly,
// replacing the hand-rolled generic utils.Set luxfi/evm carries.
package deptracker

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/luxfi/geth/common"
)

// Key identifies a single MV-Memory location: an account (Slot is the zero
// hash) or a specific storage slot.
type Key struct {
	Address common.Address
	Slot    common.Hash
}

const lockShards = 64

// Tracker records, per transaction index, the set of Keys read and written
// during a (possibly speculative) execution attempt.
type Tracker struct {
	mu        [lockShards]sync.Mutex
	readSets  map[int]mapset.Set[Key]
	writeSets map[int]mapset.Set[Key]
	setsMu    sync.RWMutex
}

// New constructs an empty Tracker.
func New() *Tracker {
	return &Tracker{
		readSets:  make(map[int]mapset.Set[Key]),
		writeSets: make(map[int]mapset.Set[Key]),
	}
}

func (t *Tracker) shard(txIndex int) *sync.Mutex {
	return &t.mu[txIndex%lockShards]
}

// RecordRead adds key to tx's read set.
func (t *Tracker) RecordRead(tx int, key Key) {
	shard := t.shard(tx)
	shard.Lock()
	defer shard.Unlock()
	t.setFor(tx, t.readSetsLocked).Add(key)
}

// RecordWrite adds key to tx's write set.
func (t *Tracker) RecordWrite(tx int, key Key) {
	shard := t.shard(tx)
	shard.Lock()
	defer shard.Unlock()
	t.setFor(tx, t.writeSetsLocked).Add(key)
}

func (t *Tracker) readSetsLocked(tx int) mapset.Set[Key]  { return t.lookupOrCreate(tx, t.readSets) }
func (t *Tracker) writeSetsLocked(tx int) mapset.Set[Key] { return t.lookupOrCreate(tx, t.writeSets) }

func (t *Tracker) lookupOrCreate(tx int, m map[int]mapset.Set[Key]) mapset.Set[Key] {
	t.setsMu.Lock()
	defer t.setsMu.Unlock()
	s, ok := m[tx]
	if !ok {
		s = mapset.NewSet[Key]()
		m[tx] = s
	}
	return s
}

func (t *Tracker) setFor(tx int, f func(int) mapset.Set[Key]) mapset.Set[Key] {
	return f(tx)
}

// Clear discards tx's read and write sets, called on validation failure
// before a retry (design doc §4.4).
func (t *Tracker) Clear(tx int) {
	shard := t.shard(tx)
	shard.Lock()
	defer shard.Unlock()
	t.setsMu.Lock()
	defer t.setsMu.Unlock()
	delete(t.readSets, tx)
	delete(t.writeSets, tx)
}

// ReadSet returns tx's current read set (empty if none recorded).
func (t *Tracker) ReadSet(tx int) mapset.Set[Key] {
	t.setsMu.RLock()
	defer t.setsMu.RUnlock()
	if s, ok := t.readSets[tx]; ok {
		return s.Clone()
	}
	return mapset.NewSet[Key]()
}

// WriteSet returns tx's current write set (empty if none recorded).
func (t *Tracker) WriteSet(tx int) mapset.Set[Key] {
	t.setsMu.RLock()
	defer t.setsMu.RUnlock()
	if s, ok := t.writeSets[tx]; ok {
		return s.Clone()
	}
	return mapset.NewSet[Key]()
}

// Conflicts implements design doc §3's rule: transactions i < j conflict
// iff write_set[i] intersects (read_set[j] union write_set[j]).
func (t *Tracker) Conflicts(i, j int) bool {
	wi := t.WriteSet(i)
	if wi.Cardinality() == 0 {
		return false
	}
	union := t.ReadSet(j).Union(t.WriteSet(j))
	return wi.Intersect(union).Cardinality() > 0
}
