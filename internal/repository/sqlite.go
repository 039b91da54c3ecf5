package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-coastal-alerts/internal/geo"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			alert_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			recommended_actions TEXT NOT NULL,
			affected_areas TEXT NOT NULL,
			expires_at DATETIME,
			source_data TEXT,
			is_active INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS notification_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_id TEXT NOT NULL,
			channel_type TEXT NOT NULL,
			target TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			status TEXT NOT NULL,
			message TEXT,
			error_message TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_is_active ON alerts(is_active);
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
		CREATE INDEX IF NOT EXISTS idx_notification_log_alert_id ON notification_log(alert_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Insert(ctx context.Context, a *models.Alert) error {
	actions, err := json.Marshal(a.RecommendedActions)
	if err != nil {
		return fmt.Errorf("error encoding recommended actions: %w", err)
	}
	areas, err := json.Marshal(a.AffectedAreas)
	if err != nil {
		return fmt.Errorf("error encoding affected areas: %w", err)
	}
	source, err := json.Marshal(a.SourceData)
	if err != nil {
		return fmt.Errorf("error encoding source data: %w", err)
	}

	var expiresAt any
	if a.ExpiresAt != nil {
		expiresAt = a.ExpiresAt.UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (
			id, created_at, alert_type, severity, latitude, longitude,
			title, description, recommended_actions, affected_areas,
			expires_at, source_data, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CreatedAt.UTC(), string(a.Type), a.Severity.String(),
		a.Latitude, a.Longitude, a.Title, a.Description,
		string(actions), string(areas), expiresAt, string(source), a.IsActive,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
		}
		return fmt.Errorf("error inserting alert: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, alert_type, severity, latitude, longitude,
		       title, description, recommended_actions, affected_areas,
		       expires_at, source_data, is_active
		FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning alert: %w", err)
	}
	return a, nil
}

func (s *SQLiteDB) ActiveAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, alert_type, severity, latitude, longitude,
		       title, description, recommended_actions, affected_areas,
		       expires_at, source_data, is_active
		FROM alerts
		WHERE is_active = 1 AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY created_at DESC`, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		if f.Center != nil && !geo.WithinKm(f.Center.Latitude, f.Center.Longitude, a.Latitude, a.Longitude, f.RadiusKm) {
			continue
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteDB) Deactivate(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("error deactivating alert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLiteDB) Append(ctx context.Context, e *models.NotificationLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log (
			alert_id, channel_type, target, timestamp, status, message, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.AlertID, string(e.ChannelType), e.Target, e.Timestamp.UTC(),
		string(e.Status), e.Message, e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("error appending notification log entry: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ByAlert(ctx context.Context, alertID string) ([]models.NotificationLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT alert_id, channel_type, target, timestamp, status, message, error_message
		FROM notification_log WHERE alert_id = ? ORDER BY id`, alertID)
	if err != nil {
		return nil, fmt.Errorf("error querying notification log: %w", err)
	}
	defer rows.Close()

	var entries []models.NotificationLogEntry
	for rows.Next() {
		var (
			e           models.NotificationLogEntry
			channelType string
			status      string
		)
		if err := rows.Scan(&e.AlertID, &channelType, &e.Target, &e.Timestamp, &status, &e.Message, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("error scanning log entry: %w", err)
		}
		e.ChannelType = models.ChannelType(channelType)
		e.Status = models.DeliveryStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var (
		a         models.Alert
		alertType string
		severity  string
		actions   string
		areas     string
		expiresAt sql.NullTime
		source    sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.CreatedAt, &alertType, &severity, &a.Latitude, &a.Longitude,
		&a.Title, &a.Description, &actions, &areas, &expiresAt, &source, &a.IsActive,
	)
	if err != nil {
		return nil, err
	}

	a.Type = models.AlertType(alertType)
	sev, ok := models.ParseSeverity(severity)
	if !ok {
		return nil, fmt.Errorf("corrupt severity value: %q", severity)
	}
	a.Severity = sev

	if err := json.Unmarshal([]byte(actions), &a.RecommendedActions); err != nil {
		return nil, fmt.Errorf("error decoding recommended actions: %w", err)
	}
	if err := json.Unmarshal([]byte(areas), &a.AffectedAreas); err != nil {
		return nil, fmt.Errorf("error decoding affected areas: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		a.ExpiresAt = &t
	}
	if source.Valid && source.String != "" && source.String != "null" {
		if err := json.Unmarshal([]byte(source.String), &a.SourceData); err != nil {
			return nil, fmt.Errorf("error decoding source data: %w", err)
		}
	}

	return &a, nil
}
