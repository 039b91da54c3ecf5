package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

// ErrDuplicateID is returned by Insert when an alert with the same ID
// already exists. Callers may retry with a fresh discriminator.
var ErrDuplicateID = errors.New("alert id already exists")

// AlertFilter narrows ActiveAlerts. A nil Center returns all active
// alerts; with a Center, only alerts within RadiusKm of it.
type AlertFilter struct {
	Center   *models.Coordinates
	RadiusKm float64
}

type AlertRepository interface {
	// Insert persists the alert atomically. Fails with ErrDuplicateID on
	// an existing ID.
	Insert(ctx context.Context, a *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	// ActiveAlerts returns alerts that are flagged active and not expired.
	ActiveAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error)
	// Deactivate is idempotent; it reports whether a record with the ID
	// existed, regardless of its prior state.
	Deactivate(ctx context.Context, id string) (bool, error)
}

// NotificationLogRepository is the append-only audit trail of delivery
// attempts. There is deliberately no update or delete.
type NotificationLogRepository interface {
	Append(ctx context.Context, e *models.NotificationLogEntry) error
	ByAlert(ctx context.Context, alertID string) ([]models.NotificationLogEntry, error)
}
