package engine

import "budget-auditor/internal/models"

// SpikeBaseline selects which sector mean an event is compared against.
type SpikeBaseline string

const (
	// BaselinePreUpdate compares against the mean before the triggering
	// event is folded in, so an event cannot skew its own baseline.
	// This is the default.
	BaselinePreUpdate SpikeBaseline = "pre_update"
	// BaselinePostUpdate compares against the mean including the
	// triggering event.
	BaselinePostUpdate SpikeBaseline = "post_update"
)

// SpikeTrigger describes a detected spike: the baseline snapshot the event
// was compared against and the resulting ratio.
type SpikeTrigger struct {
	Baseline models.SectorSnapshot
	Ratio    float64
}

// SpikeDetector flags events whose amount is at least Multiplier times the
// rolling mean of their (state, sector) aggregate. Detection is repeating:
// every qualifying event produces a trigger, with no per-key latch.
type SpikeDetector struct {
	multiplier float64
	baseline   SpikeBaseline
}

// NewSpikeDetector creates a detector with the given multiplier and
// baseline policy.
func NewSpikeDetector(multiplier float64, baseline SpikeBaseline) *SpikeDetector {
	return &SpikeDetector{
		multiplier: multiplier,
		baseline:   baseline,
	}
}

// Multiplier returns the configured spike multiplier.
func (d *SpikeDetector) Multiplier() float64 {
	return d.multiplier
}

// Detect evaluates one event against the before/after snapshots returned by
// SectorAggregator.Ingest. It returns nil when no spike fired.
//
// The first event for a key has no defined baseline (before.EventCount is
// zero), so it can never spike under the pre-update policy. Under the
// post-update policy the first event's baseline is itself, giving ratio 1.
func (d *SpikeDetector) Detect(ev *models.BudgetEvent, before, after models.SectorSnapshot) *SpikeTrigger {
	baseline := before
	if d.baseline == BaselinePostUpdate {
		baseline = after
	}

	if baseline.EventCount == 0 || baseline.MeanAmount == 0 {
		return nil
	}

	ratio := ev.Amount / baseline.MeanAmount
	if ratio < d.multiplier {
		return nil
	}

	return &SpikeTrigger{
		Baseline: baseline,
		Ratio:    ratio,
	}
}
