package engine

import (
	"strings"
	"testing"

	"budget-auditor/internal/models"
)

func TestSpikeReason(t *testing.T) {
	ev := testEvent("e1", "Tamil Nadu", "Energy", "SunTech Projects", 500)
	trigger := &SpikeTrigger{
		Baseline: models.SectorSnapshot{
			State:      "Tamil Nadu",
			Sector:     "Energy",
			MeanAmount: 100,
			EventCount: 2,
		},
		Ratio: 5.0,
	}

	reason := SpikeReason(ev, trigger, 4.0)

	for _, want := range []string{"Tamil Nadu", "Energy", "SunTech Projects", "5.0x", "4.0x", "₹500.00 Cr", "₹100.00 Cr"} {
		if !strings.Contains(reason, want) {
			t.Errorf("reason %q missing %q", reason, want)
		}
	}

	// Pure: identical input, identical output.
	if again := SpikeReason(ev, trigger, 4.0); again != reason {
		t.Errorf("reason not deterministic: %q vs %q", reason, again)
	}
}

func TestThresholdReason(t *testing.T) {
	ev := testEvent("e1", "Kerala", "Water", "GreenInfra Ltd", 2)
	snap := models.ContractorSnapshot{
		Contractor:       "GreenInfra Ltd",
		CumulativeAmount: 5001,
		PaymentCount:     3,
		ThresholdCrossed: true,
	}

	reason := ThresholdReason(ev, snap, 5000)

	for _, want := range []string{"GreenInfra Ltd", "₹5,001.00 Cr", "₹5,000.00 Cr", "3 payments"} {
		if !strings.Contains(reason, want) {
			t.Errorf("reason %q missing %q", reason, want)
		}
	}
}

// Reason composition is total: degenerate but well-formed inputs still
// produce a string without panicking.
func TestReasons_TotalOnDegenerateInput(t *testing.T) {
	ev := testEvent("e1", "X", "Y", "Z", 0)

	_ = SpikeReason(ev, &SpikeTrigger{Baseline: models.SectorSnapshot{}, Ratio: 0}, 0)
	_ = ThresholdReason(ev, models.ContractorSnapshot{}, 0)
}
