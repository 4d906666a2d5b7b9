package engine

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestContractorLedger_LatchesOnCrossingEvent(t *testing.T) {
	ledger := NewContractorLedger(5000)

	// 4000 + 999 = 4999 stays under; +2 crosses to 5001.
	amounts := []float64{4000, 999, 2}
	wantCrossed := []bool{false, false, true}

	for i, amount := range amounts {
		snap, crossed := ledger.Ingest(testEvent(fmt.Sprintf("e%d", i), "Kerala", "Water", "GreenInfra Ltd", amount))
		if crossed != wantCrossed[i] {
			t.Errorf("event %d (%.0f): crossed = %v, want %v", i, amount, crossed, wantCrossed[i])
		}
		if i == 2 {
			if !snap.ThresholdCrossed {
				t.Error("snapshot should report threshold crossed")
			}
			if math.Abs(snap.CumulativeAmount-5001) > 1e-9 {
				t.Errorf("cumulative = %f, want 5001", snap.CumulativeAmount)
			}
		}
	}
}

func TestContractorLedger_LatchFiresOnce(t *testing.T) {
	ledger := NewContractorLedger(5000)

	crossings := 0
	for i := 0; i < 10; i++ {
		if _, crossed := ledger.Ingest(testEvent(fmt.Sprintf("e%d", i), "Kerala", "Water", "GreenInfra Ltd", 2000)); crossed {
			crossings++
		}
	}

	if crossings != 1 {
		t.Errorf("crossings = %d, want exactly 1", crossings)
	}
	snap, _ := ledger.Snapshot("GreenInfra Ltd")
	if !snap.ThresholdCrossed {
		t.Error("latch should remain set")
	}
}

func TestContractorLedger_ExactCeilingCrosses(t *testing.T) {
	ledger := NewContractorLedger(5000)

	if _, crossed := ledger.Ingest(testEvent("e1", "Kerala", "Water", "GreenInfra Ltd", 5000)); !crossed {
		t.Error("cumulative exactly at ceiling must latch")
	}
}

func TestContractorLedger_ContractorsAreIndependent(t *testing.T) {
	ledger := NewContractorLedger(5000)

	ledger.Ingest(testEvent("e1", "Kerala", "Water", "GreenInfra Ltd", 6000))
	snapA, _ := ledger.Snapshot("GreenInfra Ltd")
	if !snapA.ThresholdCrossed {
		t.Error("GreenInfra Ltd should be latched")
	}

	_, crossed := ledger.Ingest(testEvent("e2", "Kerala", "Water", "SunTech Projects", 100))
	if crossed {
		t.Error("SunTech Projects should not be latched")
	}
	if ledger.Len() != 2 {
		t.Errorf("ledger keys = %d, want 2", ledger.Len())
	}
}

func TestContractorLedger_CumulativeIsNonDecreasing(t *testing.T) {
	ledger := NewContractorLedger(1e12)

	var prev float64
	for i := 0; i < 50; i++ {
		snap, _ := ledger.Ingest(testEvent(fmt.Sprintf("e%d", i), "Kerala", "Water", "GreenInfra Ltd", float64(i%7)))
		if snap.CumulativeAmount < prev {
			t.Fatalf("cumulative decreased: %f -> %f", prev, snap.CumulativeAmount)
		}
		prev = snap.CumulativeAmount
	}
}

func TestContractorLedger_ConcurrentFirstTouch(t *testing.T) {
	ledger := NewContractorLedger(1e12)

	const workers = 32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			ledger.Ingest(testEvent(fmt.Sprintf("e%d", n), "Kerala", "Water", "GreenInfra Ltd", 5))
		}(i)
	}

	close(start)
	wg.Wait()

	if ledger.Len() != 1 {
		t.Fatalf("expected 1 contractor, got %d", ledger.Len())
	}
	snap, _ := ledger.Snapshot("GreenInfra Ltd")
	if snap.PaymentCount != workers {
		t.Errorf("payment count = %d, want %d", snap.PaymentCount, workers)
	}
}
