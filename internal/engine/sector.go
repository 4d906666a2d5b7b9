// Package engine implements the incremental aggregation and anomaly
// detection core: keyed running aggregates updated in O(1) per event,
// with spike and cumulative-threshold alerting.
package engine

import (
	"sync"
	"time"

	"budget-auditor/internal/models"
)

// sectorState is the owned mutable state for one (state, sector) key.
// The per-key mutex guarantees snapshots are never torn.
type sectorState struct {
	mu          sync.Mutex
	totalAmount float64
	eventCount  int64
	updatedAt   time.Time
}

// SectorAggregator maintains running totals and event counts per
// (state, sector) key. Aggregates are created on first touch and live for
// the life of the process; memory grows with the number of distinct keys,
// not with event volume.
type SectorAggregator struct {
	mu         sync.RWMutex
	aggregates map[models.SectorKey]*sectorState
}

// NewSectorAggregator creates an empty sector aggregator.
func NewSectorAggregator() *SectorAggregator {
	return &SectorAggregator{
		aggregates: make(map[models.SectorKey]*sectorState),
	}
}

// getOrCreate returns the state for key, creating it atomically on first
// touch. Concurrent first-touch of the same key yields a single aggregate.
func (a *SectorAggregator) getOrCreate(key models.SectorKey) *sectorState {
	a.mu.RLock()
	st, ok := a.aggregates[key]
	a.mu.RUnlock()
	if ok {
		return st
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok = a.aggregates[key]; ok {
		return st
	}
	st = &sectorState{}
	a.aggregates[key] = st
	return st
}

// Ingest folds one event into its (state, sector) aggregate and returns the
// snapshots immediately before and after the update. The before snapshot has
// EventCount zero when the event is the first for its key.
func (a *SectorAggregator) Ingest(ev *models.BudgetEvent) (before, after models.SectorSnapshot) {
	key := models.SectorKey{State: ev.State, Sector: ev.Sector}
	st := a.getOrCreate(key)

	st.mu.Lock()
	defer st.mu.Unlock()

	before = st.snapshotLocked(key)

	st.totalAmount += ev.Amount
	st.eventCount++
	st.updatedAt = ev.Timestamp

	after = st.snapshotLocked(key)
	return before, after
}

// snapshotLocked builds a consistent snapshot. Caller holds st.mu.
func (st *sectorState) snapshotLocked(key models.SectorKey) models.SectorSnapshot {
	snap := models.SectorSnapshot{
		State:       key.State,
		Sector:      key.Sector,
		TotalAmount: st.totalAmount,
		EventCount:  st.eventCount,
		UpdatedAt:   st.updatedAt,
	}
	if st.eventCount > 0 {
		snap.MeanAmount = st.totalAmount / float64(st.eventCount)
	}
	return snap
}

// Snapshot returns the current snapshot for a key, reporting whether the
// key has been seen.
func (a *SectorAggregator) Snapshot(key models.SectorKey) (models.SectorSnapshot, bool) {
	a.mu.RLock()
	st, ok := a.aggregates[key]
	a.mu.RUnlock()
	if !ok {
		return models.SectorSnapshot{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked(key), true
}

// Snapshots returns a consistent snapshot of every known key.
func (a *SectorAggregator) Snapshots() []models.SectorSnapshot {
	a.mu.RLock()
	keys := make([]models.SectorKey, 0, len(a.aggregates))
	states := make([]*sectorState, 0, len(a.aggregates))
	for key, st := range a.aggregates {
		keys = append(keys, key)
		states = append(states, st)
	}
	a.mu.RUnlock()

	snaps := make([]models.SectorSnapshot, 0, len(keys))
	for i, st := range states {
		st.mu.Lock()
		snaps = append(snaps, st.snapshotLocked(keys[i]))
		st.mu.Unlock()
	}
	return snaps
}

// Len returns the number of distinct (state, sector) keys seen so far.
func (a *SectorAggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.aggregates)
}
