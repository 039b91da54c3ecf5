package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testAlert(id string) *models.Alert {
	expiry := time.Now().Add(12 * time.Hour)
	return &models.Alert{
		ID:                 id,
		CreatedAt:          time.Now().UTC(),
		Type:               models.AlertTypeStormSurge,
		Severity:           models.SeverityHigh,
		Latitude:           12.5,
		Longitude:          80.5,
		Title:              "High Wave Alert - 4.50m waves detected",
		Description:        "Wave heights of 4.50m have been detected.",
		RecommendedActions: []string{"Evacuate low-lying areas immediately"},
		AffectedAreas:      []string{"Coastal area within 5km of 12.500, 80.500"},
		ExpiresAt:          &expiry,
		SourceData:         map[string]any{"measurement_type": "wave_height", "value": 4.5},
		IsActive:           true,
	}
}

func TestSQLiteDB_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Insert(ctx, testAlert("ENV_20250314_090000_wave_height")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := db.GetByID(ctx, "ENV_20250314_090000_wave_height")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected alert, got nil")
	}
	if got.Type != models.AlertTypeStormSurge {
		t.Errorf("alert type = %s, want storm_surge", got.Type)
	}
	if got.Severity != models.SeverityHigh {
		t.Errorf("severity = %s, want HIGH", got.Severity)
	}
	if len(got.RecommendedActions) != 1 {
		t.Errorf("expected 1 recommended action, got %d", len(got.RecommendedActions))
	}
	if got.ExpiresAt == nil {
		t.Error("expected expiry to round-trip")
	}
	if got.SourceData["measurement_type"] != "wave_height" {
		t.Errorf("source data not round-tripped: %v", got.SourceData)
	}
}

func TestSQLiteDB_GetByID_Missing(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing alert, got %+v", got)
	}
}

func TestSQLiteDB_DuplicateInsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := testAlert("dup_test")
	if err := db.Insert(ctx, a); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	err := db.Insert(ctx, a)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestSQLiteDB_ActiveAlerts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	active := testAlert("active_1")
	db.Insert(ctx, active)

	inactive := testAlert("inactive_1")
	inactive.IsActive = false
	db.Insert(ctx, inactive)

	expired := testAlert("expired_1")
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past
	db.Insert(ctx, expired)

	noExpiry := testAlert("no_expiry_1")
	noExpiry.ExpiresAt = nil
	db.Insert(ctx, noExpiry)

	alerts, err := db.ActiveAlerts(ctx, AlertFilter{})
	if err != nil {
		t.Fatalf("ActiveAlerts failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 active alerts, got %d", len(alerts))
	}
	for _, a := range alerts {
		if a.ID == "inactive_1" || a.ID == "expired_1" {
			t.Errorf("alert %s should have been filtered out", a.ID)
		}
	}
}

func TestSQLiteDB_ActiveAlerts_RadiusFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	near := testAlert("near_1") // 12.5, 80.5
	db.Insert(ctx, near)

	far := testAlert("far_1")
	far.Latitude = 20.0
	far.Longitude = 90.0
	db.Insert(ctx, far)

	center := &models.Coordinates{Latitude: 12.0, Longitude: 80.0}
	alerts, err := db.ActiveAlerts(ctx, AlertFilter{Center: center, RadiusKm: 100.0})
	if err != nil {
		t.Fatalf("ActiveAlerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert within 100km, got %d", len(alerts))
	}
	if alerts[0].ID != "near_1" {
		t.Errorf("expected near_1, got %s", alerts[0].ID)
	}
}

func TestSQLiteDB_Deactivate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	db.Insert(ctx, testAlert("deact_1"))

	existed, err := db.Deactivate(ctx, "deact_1")
	if err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if !existed {
		t.Error("expected existed=true for known alert")
	}

	// Idempotent: deactivating again still reports the record exists.
	existed, err = db.Deactivate(ctx, "deact_1")
	if err != nil {
		t.Fatalf("second Deactivate failed: %v", err)
	}
	if !existed {
		t.Error("expected existed=true on repeat deactivation")
	}

	existed, err = db.Deactivate(ctx, "ghost")
	if err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if existed {
		t.Error("expected existed=false for unknown alert")
	}

	got, _ := db.GetByID(ctx, "deact_1")
	if got.IsActive {
		t.Error("alert should be inactive after Deactivate")
	}
}

func TestSQLiteDB_NotificationLog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	entries := []*models.NotificationLogEntry{
		{
			AlertID:     "a1",
			ChannelType: models.ChannelSMS,
			Target:      "+1234567890",
			Timestamp:   time.Now().UTC(),
			Status:      models.DeliverySent,
			Message:     "COASTAL ALERT",
		},
		{
			AlertID:      "a1",
			ChannelType:  models.ChannelEmail,
			Target:       "ops@example.org",
			Timestamp:    time.Now().UTC(),
			Status:       models.DeliveryFailed,
			ErrorMessage: "smtp: connection refused",
		},
		{
			AlertID:     "a2",
			ChannelType: models.ChannelWebhook,
			Target:      "https://example.org/hook",
			Timestamp:   time.Now().UTC(),
			Status:      models.DeliverySkipped,
		},
	}
	for _, e := range entries {
		if err := db.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := db.ByAlert(ctx, "a1")
	if err != nil {
		t.Fatalf("ByAlert failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for a1, got %d", len(got))
	}
	// Append order is preserved.
	if got[0].ChannelType != models.ChannelSMS || got[1].ChannelType != models.ChannelEmail {
		t.Errorf("entries out of order: %v, %v", got[0].ChannelType, got[1].ChannelType)
	}
	if got[1].Status != models.DeliveryFailed || got[1].ErrorMessage == "" {
		t.Errorf("failed entry should carry its error: %+v", got[1])
	}

	got, err = db.ByAlert(ctx, "a3")
	if err != nil {
		t.Fatalf("ByAlert failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries for a3, got %d", len(got))
	}
}

func TestSQLiteDB_ConcurrentInsertAndLog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	done := make(chan error, 20)
	for i := 0; i < 10; i++ {
		go func(n int) {
			a := testAlert(time.Now().Format("20060102") + "_" + string(rune('a'+n)))
			done <- db.Insert(ctx, a)
		}(i)
		go func(n int) {
			done <- db.Append(ctx, &models.NotificationLogEntry{
				AlertID:     "concurrent",
				ChannelType: models.ChannelSMS,
				Target:      "+1",
				Timestamp:   time.Now().UTC(),
				Status:      models.DeliverySent,
			})
		}(i)
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent write failed: %v", err)
		}
	}

	entries, err := db.ByAlert(ctx, "concurrent")
	if err != nil {
		t.Fatalf("ByAlert failed: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("expected 10 log entries, got %d", len(entries))
	}
}
