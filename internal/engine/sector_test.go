package engine

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"budget-auditor/internal/models"
)

func testEvent(id, state, sector, contractor string, amount float64) *models.BudgetEvent {
	return &models.BudgetEvent{
		EventID:    id,
		Timestamp:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		State:      state,
		Sector:     sector,
		Contractor: contractor,
		Amount:     amount,
		Category:   "capital",
	}
}

func TestSectorAggregator_RunningTotals(t *testing.T) {
	agg := NewSectorAggregator()

	amounts := []float64{100, 250.5, 42, 0, 1000}
	var wantTotal float64

	for i, amount := range amounts {
		before, after := agg.Ingest(testEvent(fmt.Sprintf("e%d", i), "Kerala", "Water", "AquaWorks India", amount))

		if before.EventCount != int64(i) {
			t.Errorf("event %d: before count = %d, want %d", i, before.EventCount, i)
		}
		if math.Abs(before.TotalAmount-wantTotal) > 1e-9 {
			t.Errorf("event %d: before total = %f, want %f", i, before.TotalAmount, wantTotal)
		}

		wantTotal += amount
		if after.EventCount != int64(i+1) {
			t.Errorf("event %d: after count = %d, want %d", i, after.EventCount, i+1)
		}
		if math.Abs(after.TotalAmount-wantTotal) > 1e-9 {
			t.Errorf("event %d: after total = %f, want %f", i, after.TotalAmount, wantTotal)
		}
		if math.Abs(after.MeanAmount-wantTotal/float64(i+1)) > 1e-9 {
			t.Errorf("event %d: mean = %f, want %f", i, after.MeanAmount, wantTotal/float64(i+1))
		}
	}
}

func TestSectorAggregator_KeysAreIndependent(t *testing.T) {
	agg := NewSectorAggregator()

	agg.Ingest(testEvent("e1", "Kerala", "Water", "AquaWorks India", 100))
	agg.Ingest(testEvent("e2", "Kerala", "Transport", "RoadMaster Pvt Ltd", 500))
	agg.Ingest(testEvent("e3", "Gujarat", "Water", "AquaWorks India", 900))

	if agg.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", agg.Len())
	}

	snap, ok := agg.Snapshot(models.SectorKey{State: "Kerala", Sector: "Water"})
	if !ok {
		t.Fatal("Kerala/Water aggregate missing")
	}
	if snap.TotalAmount != 100 || snap.EventCount != 1 {
		t.Errorf("Kerala/Water = {%f, %d}, want {100, 1}", snap.TotalAmount, snap.EventCount)
	}
}

func TestSectorAggregator_FirstEventBeforeSnapshotIsEmpty(t *testing.T) {
	agg := NewSectorAggregator()

	before, _ := agg.Ingest(testEvent("e1", "Kerala", "Water", "AquaWorks India", 100))
	if before.EventCount != 0 {
		t.Errorf("before count = %d, want 0", before.EventCount)
	}
	if before.MeanAmount != 0 {
		t.Errorf("before mean = %f, want 0 (undefined)", before.MeanAmount)
	}
}

// Concurrent first-touch of the same new key must not create duplicate
// aggregates or lose events.
func TestSectorAggregator_ConcurrentFirstTouch(t *testing.T) {
	agg := NewSectorAggregator()

	const workers = 32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			agg.Ingest(testEvent(fmt.Sprintf("e%d", n), "Kerala", "Water", "AquaWorks India", 10))
		}(i)
	}

	close(start)
	wg.Wait()

	if agg.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", agg.Len())
	}
	snap, _ := agg.Snapshot(models.SectorKey{State: "Kerala", Sector: "Water"})
	if snap.EventCount != workers {
		t.Errorf("count = %d, want %d", snap.EventCount, workers)
	}
	if math.Abs(snap.TotalAmount-float64(workers*10)) > 1e-9 {
		t.Errorf("total = %f, want %f", snap.TotalAmount, float64(workers*10))
	}
}

func TestSectorAggregator_SnapshotTripleIsConsistent(t *testing.T) {
	agg := NewSectorAggregator()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			agg.Ingest(testEvent(fmt.Sprintf("e%d", i), "Kerala", "Water", "AquaWorks India", 7))
		}
	}()

	key := models.SectorKey{State: "Kerala", Sector: "Water"}
	for {
		select {
		case <-done:
			return
		default:
		}
		snap, ok := agg.Snapshot(key)
		if !ok {
			continue
		}
		want := snap.TotalAmount / float64(snap.EventCount)
		if math.Abs(snap.MeanAmount-want) > 1e-9 {
			t.Fatalf("torn snapshot: mean %f, total/count %f", snap.MeanAmount, want)
		}
	}
}
