package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"budget-auditor/internal/models"

	apperrors "budget-auditor/internal/errors"
)

// JSONL output file names within the sink directory.
const (
	SectorAggFile     = "state_sector_agg.jsonl"
	ContractorAggFile = "contractor_agg.jsonl"
	AlertsFile        = "alerts.jsonl"
)

// JSONLSink appends output records to three JSONL files, one per record
// kind. Downstream consumers (dashboard API, context enrichment) tail
// these files.
type JSONLSink struct {
	mu          sync.Mutex
	sectors     *os.File
	contractors *os.File
	alerts      *os.File
}

// NewJSONLSink creates the output directory if needed and opens the three
// output files in append mode.
func NewJSONLSink(dir string) (*JSONLSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewSinkError("jsonl", "mkdir", err)
	}

	open := func(name string) (*os.File, error) {
		return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	}

	sectors, err := open(SectorAggFile)
	if err != nil {
		return nil, apperrors.NewSinkError("jsonl", "open "+SectorAggFile, err)
	}
	contractors, err := open(ContractorAggFile)
	if err != nil {
		sectors.Close()
		return nil, apperrors.NewSinkError("jsonl", "open "+ContractorAggFile, err)
	}
	alerts, err := open(AlertsFile)
	if err != nil {
		sectors.Close()
		contractors.Close()
		return nil, apperrors.NewSinkError("jsonl", "open "+AlertsFile, err)
	}

	return &JSONLSink{
		sectors:     sectors,
		contractors: contractors,
		alerts:      alerts,
	}, nil
}

// Name returns the sink name.
func (s *JSONLSink) Name() string { return "jsonl" }

func (s *JSONLSink) appendLine(f *os.File, v interface{}) error {
	line, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewSinkError("jsonl", "marshal", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := f.Write(line); err != nil {
		return apperrors.NewSinkError("jsonl", "write", err)
	}
	return nil
}

// PublishSectorSnapshot appends the snapshot to the sector aggregate file.
func (s *JSONLSink) PublishSectorSnapshot(_ context.Context, snap models.SectorSnapshot) error {
	return s.appendLine(s.sectors, snap)
}

// PublishContractorSnapshot appends the snapshot to the contractor
// aggregate file.
func (s *JSONLSink) PublishContractorSnapshot(_ context.Context, snap models.ContractorSnapshot) error {
	return s.appendLine(s.contractors, snap)
}

// PublishAlert appends the alert to the alerts file.
func (s *JSONLSink) PublishAlert(_ context.Context, alert models.AlertRecord) error {
	return s.appendLine(s.alerts, alert)
}

// Close flushes and closes all three files.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{s.sectors, s.contractors, s.alerts} {
		if err := f.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
