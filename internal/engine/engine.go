// Package engine wires the alert pipeline together: classify an incoming
// event, persist the resulting alert, publish it to live streams and fan
// it out to matched stakeholders.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mr1hm/go-coastal-alerts/internal/alert"
	"github.com/mr1hm/go-coastal-alerts/internal/broadcast"
	"github.com/mr1hm/go-coastal-alerts/internal/classifier"
	"github.com/mr1hm/go-coastal-alerts/internal/directory"
	"github.com/mr1hm/go-coastal-alerts/internal/dispatch"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
	"github.com/mr1hm/go-coastal-alerts/internal/repository"
)

// insertRetries bounds the ID-collision retry loop. Collisions need two
// events with the same second-resolution timestamp and kind, so one retry
// almost always suffices.
const insertRetries = 3

type Engine struct {
	classifier  *classifier.Classifier
	factory     *alert.Factory
	alerts      repository.AlertRepository
	log         repository.NotificationLogRepository
	directory   *directory.Directory
	dispatcher  *dispatch.Dispatcher
	broadcaster *broadcast.Broadcaster
}

func New(
	c *classifier.Classifier,
	f *alert.Factory,
	alerts repository.AlertRepository,
	log repository.NotificationLogRepository,
	dir *directory.Directory,
	disp *dispatch.Dispatcher,
	b *broadcast.Broadcaster,
) *Engine {
	return &Engine{
		classifier:  c,
		factory:     f,
		alerts:      alerts,
		log:         log,
		directory:   dir,
		dispatcher:  disp,
		broadcaster: b,
	}
}

// ProcessMeasurement runs a sensor reading through the pipeline. A reading
// below its alert threshold produces no alert and returns (nil, nil).
func (e *Engine) ProcessMeasurement(ctx context.Context, m models.Measurement) (*models.Alert, error) {
	c, ok := e.classifier.ClassifyMeasurement(m)
	if !ok {
		slog.Debug("measurement below threshold",
			"measurement_type", m.Type,
			"value", m.Value,
		)
		return nil, nil
	}

	a := e.factory.FromMeasurement(m, c)
	return e.publish(ctx, a)
}

// ProcessAnomaly runs a detector finding through the pipeline. Anomalies
// always produce an alert.
func (e *Engine) ProcessAnomaly(ctx context.Context, an models.Anomaly) (*models.Alert, error) {
	c := classifier.ClassifyAnomaly(an)
	a := e.factory.FromAnomaly(an, c)
	return e.publish(ctx, a)
}

// publish persists the alert, then distributes it. Distribution is
// synchronous: when publish returns, every matched pair has a log entry.
func (e *Engine) publish(ctx context.Context, a *models.Alert) (*models.Alert, error) {
	if err := e.insertWithRetry(ctx, a); err != nil {
		return nil, err
	}

	slog.Info("alert created",
		"alert_id", a.ID,
		"alert_type", a.Type,
		"severity", a.Severity.String(),
		"latitude", a.Latitude,
		"longitude", a.Longitude,
	)

	e.broadcaster.Broadcast(a)

	matches := e.directory.Match(a)
	e.dispatcher.Distribute(ctx, a, matches)

	return a, nil
}

// insertWithRetry re-discriminates the alert ID when two events classify
// within the same second. The stored alert keeps the final ID.
func (e *Engine) insertWithRetry(ctx context.Context, a *models.Alert) error {
	var err error
	for i := 0; i < insertRetries; i++ {
		err = e.alerts.Insert(ctx, a)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateID) {
			return fmt.Errorf("error storing alert %s: %w", a.ID, err)
		}
		a.ID = alert.Rediscriminate(a.ID)
	}
	return fmt.Errorf("error storing alert after %d attempts: %w", insertRetries, err)
}

// ActiveAlerts lists unexpired active alerts, optionally filtered to a
// radius around a point.
func (e *Engine) ActiveAlerts(ctx context.Context, f repository.AlertFilter) ([]models.Alert, error) {
	return e.alerts.ActiveAlerts(ctx, f)
}

// GetAlert returns the alert or (nil, nil) when the ID is unknown.
func (e *Engine) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return e.alerts.GetByID(ctx, id)
}

// Deactivate flags the alert inactive. It reports whether the ID existed.
func (e *Engine) Deactivate(ctx context.Context, id string) (bool, error) {
	ok, err := e.alerts.Deactivate(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		slog.Info("alert deactivated", "alert_id", id)
	}
	return ok, nil
}

// NotificationLog returns the delivery audit trail for one alert.
func (e *Engine) NotificationLog(ctx context.Context, alertID string) ([]models.NotificationLogEntry, error) {
	return e.log.ByAlert(ctx, alertID)
}
