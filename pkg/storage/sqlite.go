package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"

	_ "modernc.org/sqlite"
)

// Fixed-width so that text ordering in SQLite matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite implements Journal using an SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// WithClock replaces the time source used for recorded_at. Used by tests.
func (s *SQLite) WithClock(now func() time.Time) *SQLite {
	s.now = now
	return s
}

func (s *SQLite) RecordAlert(ctx context.Context, report *model.AlertReport) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	id := uuid.New().String()
	sum := report.Summary
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alert_records (id, kind, title, subject, no_alerts, evaluated, skipped, exceeded, threshold, report, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(report.Kind), report.Title, report.Subject, report.NoAlerts,
		sum.Evaluated, sum.Skipped, sum.Exceeded, sum.Threshold,
		string(body), s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert alert record: %w", err)
	}
	return id, nil
}

func (s *SQLite) ListAlerts(ctx context.Context, filter AlertFilter) ([]AlertRecord, error) {
	query := `SELECT id, kind, title, subject, no_alerts, evaluated, skipped, exceeded, threshold, report, recorded_at
		FROM alert_records`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY recorded_at DESC, id LIMIT ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var records []AlertRecord
	for rows.Next() {
		var (
			r        AlertRecord
			kind     string
			body     string
			recorded string
		)
		if err := rows.Scan(&r.ID, &kind, &r.Title, &r.Subject, &r.NoAlerts,
			&r.Evaluated, &r.Skipped, &r.Exceeded, &r.Threshold, &body, &recorded); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		r.Kind = model.ReportKind(kind)
		r.Report = json.RawMessage(body)
		if r.RecordedAt, err = time.Parse(timeLayout, recorded); err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recorded, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from an AlertFilter.
func buildWhereClause(filter AlertFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	return strings.Join(conditions, " AND "), args
}
