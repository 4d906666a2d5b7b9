package engine

import (
	"sync"
	"time"

	"budget-auditor/internal/models"
)

// contractorState is the owned mutable state for one contractor.
type contractorState struct {
	mu               sync.Mutex
	cumulativeAmount float64
	paymentCount     int64
	thresholdCrossed bool
	updatedAt        time.Time
}

// ContractorLedger maintains cumulative lifetime spend per contractor and
// latches exactly once when the compliance ceiling is first reached.
// The latch never resets for the life of the process.
type ContractorLedger struct {
	ceiling float64

	mu       sync.RWMutex
	accounts map[string]*contractorState
}

// NewContractorLedger creates a ledger with the given ceiling (INR crores).
func NewContractorLedger(ceiling float64) *ContractorLedger {
	return &ContractorLedger{
		ceiling:  ceiling,
		accounts: make(map[string]*contractorState),
	}
}

// Ceiling returns the configured compliance ceiling.
func (l *ContractorLedger) Ceiling() float64 {
	return l.ceiling
}

func (l *ContractorLedger) getOrCreate(contractor string) *contractorState {
	l.mu.RLock()
	st, ok := l.accounts[contractor]
	l.mu.RUnlock()
	if ok {
		return st
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok = l.accounts[contractor]; ok {
		return st
	}
	st = &contractorState{}
	l.accounts[contractor] = st
	return st
}

// Ingest adds the event's amount to the contractor's cumulative spend.
// crossed is true only for the single event that pushes the cumulative
// amount from below the ceiling to at or above it.
func (l *ContractorLedger) Ingest(ev *models.BudgetEvent) (snap models.ContractorSnapshot, crossed bool) {
	st := l.getOrCreate(ev.Contractor)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.cumulativeAmount += ev.Amount
	st.paymentCount++
	st.updatedAt = ev.Timestamp

	if !st.thresholdCrossed && st.cumulativeAmount >= l.ceiling {
		st.thresholdCrossed = true
		crossed = true
	}

	return st.snapshotLocked(ev.Contractor), crossed
}

// snapshotLocked builds a consistent snapshot. Caller holds st.mu.
func (st *contractorState) snapshotLocked(contractor string) models.ContractorSnapshot {
	return models.ContractorSnapshot{
		Contractor:       contractor,
		CumulativeAmount: st.cumulativeAmount,
		PaymentCount:     st.paymentCount,
		ThresholdCrossed: st.thresholdCrossed,
		UpdatedAt:        st.updatedAt,
	}
}

// Snapshot returns the current snapshot for a contractor, reporting whether
// the contractor has been seen.
func (l *ContractorLedger) Snapshot(contractor string) (models.ContractorSnapshot, bool) {
	l.mu.RLock()
	st, ok := l.accounts[contractor]
	l.mu.RUnlock()
	if !ok {
		return models.ContractorSnapshot{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked(contractor), true
}

// Snapshots returns a consistent snapshot of every known contractor.
func (l *ContractorLedger) Snapshots() []models.ContractorSnapshot {
	l.mu.RLock()
	names := make([]string, 0, len(l.accounts))
	states := make([]*contractorState, 0, len(l.accounts))
	for name, st := range l.accounts {
		names = append(names, name)
		states = append(states, st)
	}
	l.mu.RUnlock()

	snaps := make([]models.ContractorSnapshot, 0, len(names))
	for i, st := range states {
		st.mu.Lock()
		snaps = append(snaps, st.snapshotLocked(names[i]))
		st.mu.Unlock()
	}
	return snaps
}

// Len returns the number of distinct contractors seen so far.
func (l *ContractorLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}
