package sink

import (
	"context"
	"sync"

	"budget-auditor/internal/models"
)

// CaptureSink records everything published to it in memory. Intended for
// tests and for the run command's final summary.
type CaptureSink struct {
	mu          sync.Mutex
	sectors     []models.SectorSnapshot
	contractors []models.ContractorSnapshot
	alerts      []models.AlertRecord

	// FailNext makes the next n publishes fail, for retry testing.
	failNext int
	failErr  error
}

// NewCaptureSink creates an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// Name returns the sink name.
func (c *CaptureSink) Name() string { return "capture" }

// FailNext makes the next n publish calls return err.
func (c *CaptureSink) FailNext(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = n
	c.failErr = err
}

func (c *CaptureSink) maybeFail() error {
	if c.failNext > 0 {
		c.failNext--
		return c.failErr
	}
	return nil
}

// PublishSectorSnapshot records the snapshot.
func (c *CaptureSink) PublishSectorSnapshot(_ context.Context, snap models.SectorSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.maybeFail(); err != nil {
		return err
	}
	c.sectors = append(c.sectors, snap)
	return nil
}

// PublishContractorSnapshot records the snapshot.
func (c *CaptureSink) PublishContractorSnapshot(_ context.Context, snap models.ContractorSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.maybeFail(); err != nil {
		return err
	}
	c.contractors = append(c.contractors, snap)
	return nil
}

// PublishAlert records the alert.
func (c *CaptureSink) PublishAlert(_ context.Context, alert models.AlertRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.maybeFail(); err != nil {
		return err
	}
	c.alerts = append(c.alerts, alert)
	return nil
}

// Close is a no-op.
func (c *CaptureSink) Close() error { return nil }

// SectorSnapshots returns a copy of the captured sector snapshots.
func (c *CaptureSink) SectorSnapshots() []models.SectorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.SectorSnapshot, len(c.sectors))
	copy(out, c.sectors)
	return out
}

// ContractorSnapshots returns a copy of the captured contractor snapshots.
func (c *CaptureSink) ContractorSnapshots() []models.ContractorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ContractorSnapshot, len(c.contractors))
	copy(out, c.contractors)
	return out
}

// Alerts returns a copy of the captured alert records.
func (c *CaptureSink) Alerts() []models.AlertRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.AlertRecord, len(c.alerts))
	copy(out, c.alerts)
	return out
}
