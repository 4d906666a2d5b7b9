package models

import "time"

// AlertKind distinguishes the two anomaly classes the engine detects.
type AlertKind string

const (
	// AlertKindSpike marks a single event whose amount exceeded the
	// spike multiplier times its sector's rolling mean. Repeating: every
	// qualifying event produces an alert.
	AlertKindSpike AlertKind = "spike"
	// AlertKindCumulativeThreshold marks the event that pushed a
	// contractor's lifetime spend over the compliance ceiling. Latched:
	// at most one per contractor for the life of the process.
	AlertKindCumulativeThreshold AlertKind = "cumulative_threshold"
)

// AlertRecord is an immutable output fact describing one triggered anomaly.
// An event may produce zero, one, or two alert records; the spike and
// cumulative-threshold paths are independent.
type AlertRecord struct {
	SourceEventID string    `json:"source_event_id"`
	Kind          AlertKind `json:"kind"`
	Reason        string    `json:"reason"`
	State         string    `json:"state"`
	Sector        string    `json:"sector"`
	Contractor    string    `json:"contractor"`
	Amount        float64   `json:"amount"`

	// Spike context; zero for cumulative_threshold alerts.
	SectorMean float64 `json:"sector_mean,omitempty"`
	SpikeRatio float64 `json:"spike_ratio,omitempty"`

	// Ceiling context; zero for spike alerts.
	CumulativeAmount float64 `json:"cumulative_amount,omitempty"`
	Ceiling          float64 `json:"ceiling,omitempty"`

	EmittedAt time.Time `json:"emitted_at"`
}
