package models

import "time"

// SectorKey identifies one independently maintained (state, sector) aggregate.
type SectorKey struct {
	State  string
	Sector string
}

// SectorSnapshot is a consistent point-in-time view of one (state, sector)
// running aggregate. The triple {TotalAmount, EventCount, MeanAmount} is
// never torn: MeanAmount always equals TotalAmount / EventCount as of the
// moment the snapshot was taken.
type SectorSnapshot struct {
	State       string    `json:"state"`
	Sector      string    `json:"sector"`
	TotalAmount float64   `json:"total_amount"`
	EventCount  int64     `json:"event_count"`
	MeanAmount  float64   `json:"mean_amount"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the aggregation key for the snapshot.
func (s SectorSnapshot) Key() SectorKey {
	return SectorKey{State: s.State, Sector: s.Sector}
}

// ContractorSnapshot is a consistent point-in-time view of one contractor's
// cumulative lifetime spend. CumulativeAmount is non-decreasing and
// ThresholdCrossed latches true exactly once, never resetting.
type ContractorSnapshot struct {
	Contractor       string    `json:"contractor"`
	CumulativeAmount float64   `json:"cumulative_amount"`
	PaymentCount     int64     `json:"payment_count"`
	ThresholdCrossed bool      `json:"threshold_crossed"`
	UpdatedAt        time.Time `json:"updated_at"`
}
