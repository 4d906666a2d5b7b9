// Package sink provides output destinations for aggregate snapshots and
// alert records. The engine only needs a publish capability; delivery
// mechanics live here.
package sink

import (
	"context"
	"strings"

	"budget-auditor/internal/models"

	apperrors "budget-auditor/internal/errors"
)

// Sink is the destination for the engine's two output record kinds:
// aggregate snapshots and alerts.
type Sink interface {
	Name() string
	PublishSectorSnapshot(ctx context.Context, snap models.SectorSnapshot) error
	PublishContractorSnapshot(ctx context.Context, snap models.ContractorSnapshot) error
	PublishAlert(ctx context.Context, alert models.AlertRecord) error
	Close() error
}

// MultiSink fans records out to several sinks. A publish succeeds only if
// every sink accepts the record; partial failures are reported together so
// the caller can retry the whole publish.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink over the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Name returns the names of the wrapped sinks.
func (m *MultiSink) Name() string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return "multi[" + strings.Join(names, ",") + "]"
}

// PublishSectorSnapshot publishes to every sink.
func (m *MultiSink) PublishSectorSnapshot(ctx context.Context, snap models.SectorSnapshot) error {
	return m.each(func(s Sink) error { return s.PublishSectorSnapshot(ctx, snap) })
}

// PublishContractorSnapshot publishes to every sink.
func (m *MultiSink) PublishContractorSnapshot(ctx context.Context, snap models.ContractorSnapshot) error {
	return m.each(func(s Sink) error { return s.PublishContractorSnapshot(ctx, snap) })
}

// PublishAlert publishes to every sink.
func (m *MultiSink) PublishAlert(ctx context.Context, alert models.AlertRecord) error {
	return m.each(func(s Sink) error { return s.PublishAlert(ctx, alert) })
}

// Close closes every sink, returning the first error encountered.
func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiSink) each(fn func(Sink) error) error {
	var errs []string
	for _, s := range m.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, s.Name()+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return apperrors.Wrap(apperrors.ErrSinkUnavailable, strings.Join(errs, "; "))
	}
	return nil
}

// NoopSink discards everything. Used when no sink is configured.
type NoopSink struct{}

// Name returns the sink name.
func (NoopSink) Name() string { return "noop" }

// PublishSectorSnapshot discards the record.
func (NoopSink) PublishSectorSnapshot(context.Context, models.SectorSnapshot) error { return nil }

// PublishContractorSnapshot discards the record.
func (NoopSink) PublishContractorSnapshot(context.Context, models.ContractorSnapshot) error {
	return nil
}

// PublishAlert discards the record.
func (NoopSink) PublishAlert(context.Context, models.AlertRecord) error { return nil }

// Close is a no-op.
func (NoopSink) Close() error { return nil }
