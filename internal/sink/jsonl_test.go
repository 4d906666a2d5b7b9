package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budget-auditor/internal/models"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	return lines
}

func TestJSONLSink_AppendsOneLinePerRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONLSink(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := s.PublishSectorSnapshot(ctx, models.SectorSnapshot{
			State: "Kerala", Sector: "Water", TotalAmount: float64(100 * (i + 1)),
			EventCount: int64(i + 1), MeanAmount: 100, UpdatedAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := s.PublishContractorSnapshot(ctx, models.ContractorSnapshot{
		Contractor: "AquaWorks India", CumulativeAmount: 300, PaymentCount: 3, UpdatedAt: now,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.PublishAlert(ctx, models.AlertRecord{
		SourceEventID: "e3", Kind: models.AlertKindSpike, Reason: "spending spike",
		State: "Kerala", Sector: "Water", Contractor: "AquaWorks India",
		Amount: 500, SectorMean: 100, SpikeRatio: 5.0, EmittedAt: now,
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	sectors := readLines(t, filepath.Join(dir, SectorAggFile))
	if len(sectors) != 3 {
		t.Errorf("sector lines = %d, want 3", len(sectors))
	}
	contractors := readLines(t, filepath.Join(dir, ContractorAggFile))
	if len(contractors) != 1 {
		t.Errorf("contractor lines = %d, want 1", len(contractors))
	}
	alerts := readLines(t, filepath.Join(dir, AlertsFile))
	if len(alerts) != 1 {
		t.Fatalf("alert lines = %d, want 1", len(alerts))
	}

	// Each line is a standalone JSON document.
	var alert models.AlertRecord
	if err := json.Unmarshal([]byte(alerts[0]), &alert); err != nil {
		t.Fatalf("alert line not valid JSON: %v", err)
	}
	if alert.Kind != models.AlertKindSpike || alert.SpikeRatio != 5.0 {
		t.Errorf("round-tripped alert = %+v", alert)
	}
}

func TestJSONLSink_ReopenAppends(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	snap := models.SectorSnapshot{State: "Kerala", Sector: "Water", TotalAmount: 100, EventCount: 1, MeanAmount: 100}

	for i := 0; i < 2; i++ {
		s, err := NewJSONLSink(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.PublishSectorSnapshot(ctx, snap); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}

	if lines := readLines(t, filepath.Join(dir, SectorAggFile)); len(lines) != 2 {
		t.Errorf("lines after reopen = %d, want 2", len(lines))
	}
}

func TestJSONLSink_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	s, err := NewJSONLSink(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, AlertsFile)); err != nil {
		t.Errorf("alerts file missing: %v", err)
	}
}
