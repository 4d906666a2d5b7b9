package sink

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"budget-auditor/internal/models"

	apperrors "budget-auditor/internal/errors"
)

// SQLiteSink persists snapshots and alerts in SQLite so downstream
// collaborators (dashboard API, context enrichment) can query them.
// Snapshots are upserts keyed by their aggregation key; alerts are
// append-only.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at dbPath and initializes
// the schema.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewSinkError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteSink{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewSinkError("sqlite", "init schema", err)
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	schema := `
	-- Latest running aggregate per (state, sector)
	CREATE TABLE IF NOT EXISTS sector_aggregates (
		state TEXT NOT NULL,
		sector TEXT NOT NULL,
		total_amount REAL NOT NULL,
		event_count INTEGER NOT NULL,
		mean_amount REAL NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (state, sector)
	);

	-- Latest running aggregate per contractor
	CREATE TABLE IF NOT EXISTS contractor_aggregates (
		contractor TEXT PRIMARY KEY,
		cumulative_amount REAL NOT NULL,
		payment_count INTEGER NOT NULL,
		threshold_crossed INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	);

	-- Append-only alert log
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_event_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT NOT NULL,
		state TEXT,
		sector TEXT,
		contractor TEXT,
		amount REAL NOT NULL,
		sector_mean REAL,
		spike_ratio REAL,
		cumulative_amount REAL,
		ceiling REAL,
		emitted_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_kind ON alerts(kind);
	CREATE INDEX IF NOT EXISTS idx_alerts_contractor ON alerts(contractor);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name returns the sink name.
func (s *SQLiteSink) Name() string { return "sqlite" }

// PublishSectorSnapshot upserts the latest aggregate for its key.
func (s *SQLiteSink) PublishSectorSnapshot(ctx context.Context, snap models.SectorSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sector_aggregates (state, sector, total_amount, event_count, mean_amount, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(state, sector) DO UPDATE SET
			total_amount = excluded.total_amount,
			event_count = excluded.event_count,
			mean_amount = excluded.mean_amount,
			updated_at = excluded.updated_at`,
		snap.State, snap.Sector, snap.TotalAmount, snap.EventCount, snap.MeanAmount, snap.UpdatedAt)
	if err != nil {
		return apperrors.NewSinkError("sqlite", "upsert sector aggregate", err)
	}
	return nil
}

// PublishContractorSnapshot upserts the latest aggregate for the contractor.
func (s *SQLiteSink) PublishContractorSnapshot(ctx context.Context, snap models.ContractorSnapshot) error {
	crossed := 0
	if snap.ThresholdCrossed {
		crossed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contractor_aggregates (contractor, cumulative_amount, payment_count, threshold_crossed, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(contractor) DO UPDATE SET
			cumulative_amount = excluded.cumulative_amount,
			payment_count = excluded.payment_count,
			threshold_crossed = excluded.threshold_crossed,
			updated_at = excluded.updated_at`,
		snap.Contractor, snap.CumulativeAmount, snap.PaymentCount, crossed, snap.UpdatedAt)
	if err != nil {
		return apperrors.NewSinkError("sqlite", "upsert contractor aggregate", err)
	}
	return nil
}

// PublishAlert inserts the alert record.
func (s *SQLiteSink) PublishAlert(ctx context.Context, alert models.AlertRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (source_event_id, kind, reason, state, sector, contractor,
			amount, sector_mean, spike_ratio, cumulative_amount, ceiling, emitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.SourceEventID, string(alert.Kind), alert.Reason, alert.State, alert.Sector,
		alert.Contractor, alert.Amount, alert.SectorMean, alert.SpikeRatio,
		alert.CumulativeAmount, alert.Ceiling, alert.EmittedAt)
	if err != nil {
		return apperrors.NewSinkError("sqlite", "insert alert", err)
	}
	return nil
}

// Alerts returns alerts of the given kind, newest first, up to limit.
// Pass an empty kind for all alerts.
func (s *SQLiteSink) Alerts(ctx context.Context, kind models.AlertKind, limit int) ([]models.AlertRecord, error) {
	query := `SELECT source_event_id, kind, reason, state, sector, contractor,
		amount, sector_mean, spike_ratio, cumulative_amount, ceiling, emitted_at
		FROM alerts`
	args := []interface{}{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		var a models.AlertRecord
		var kindStr string
		var state, sector, contractor sql.NullString
		var sectorMean, spikeRatio, cumulative, ceiling sql.NullFloat64
		if err := rows.Scan(&a.SourceEventID, &kindStr, &a.Reason, &state, &sector, &contractor,
			&a.Amount, &sectorMean, &spikeRatio, &cumulative, &ceiling, &a.EmittedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
		}
		a.Kind = models.AlertKind(kindStr)
		a.State = state.String
		a.Sector = sector.String
		a.Contractor = contractor.String
		a.SectorMean = sectorMean.Float64
		a.SpikeRatio = spikeRatio.Float64
		a.CumulativeAmount = cumulative.Float64
		a.Ceiling = ceiling.Float64
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
