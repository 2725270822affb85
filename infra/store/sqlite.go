package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nurapulse/pulse/core/model"
	"github.com/nurapulse/pulse/core/telemetry"
)

// SQLiteConfig configures the SQLite telemetry store.
type SQLiteConfig struct {
	Path string `json:"path"`
}

// SQLiteStore persists telemetry samples in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS telemetry (
        vehicle_id TEXT NOT NULL,
        ts INTEGER NOT NULL,
        battery INTEGER NOT NULL,
        odometer REAL NOT NULL,
        PRIMARY KEY(vehicle_id, ts)
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts the samples in one transaction, replacing rows with the same
// vehicle and second.
func (s *SQLiteStore) Append(ctx context.Context, samples ...model.TelemetrySample) error {
	for _, smp := range samples {
		if err := smp.Validate(); err != nil {
			return err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO telemetry (vehicle_id, ts, battery, odometer)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(vehicle_id, ts) DO UPDATE SET
            battery = excluded.battery,
            odometer = excluded.odometer`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, smp := range samples {
		if _, err := stmt.ExecContext(ctx, smp.VehicleID, smp.Timestamp.Unix(), smp.BatteryPercent, smp.OdometerKM); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query returns matching samples ordered by vehicle then timestamp.
func (s *SQLiteStore) Query(ctx context.Context, q telemetry.Query) ([]model.TelemetrySample, error) {
	var args []any
	query := `SELECT vehicle_id, ts, battery, odometer FROM telemetry WHERE 1=1`
	if !q.From.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.From.Unix())
	}
	if !q.To.IsZero() {
		query += ` AND ts < ?`
		args = append(args, q.To.Unix())
	}
	if len(q.VehicleIDs) > 0 {
		query += ` AND vehicle_id IN (?` + strings.Repeat(`, ?`, len(q.VehicleIDs)-1) + `)`
		for _, id := range q.VehicleIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY vehicle_id, ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.TelemetrySample
	for rows.Next() {
		var smp model.TelemetrySample
		var ts int64
		if err := rows.Scan(&smp.VehicleID, &ts, &smp.BatteryPercent, &smp.OdometerKM); err != nil {
			return nil, err
		}
		smp.Timestamp = time.Unix(ts, 0).UTC()
		res = append(res, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Vehicles lists the distinct vehicle ids.
func (s *SQLiteStore) Vehicles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT vehicle_id FROM telemetry ORDER BY vehicle_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
