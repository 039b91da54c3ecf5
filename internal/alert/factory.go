// Package alert builds immutable Alert records from classified events.
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mr1hm/go-coastal-alerts/internal/classifier"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

const (
	measurementIDPrefix = "ENV"
	anomalyIDPrefix     = "ANOM"

	defaultSensorTTL  = 12 * time.Hour
	defaultAnomalyTTL = 24 * time.Hour
)

// ConfigurationError reports a reachable (alert type, severity) pair with
// no recommended actions. It is raised at startup, never at alert time.
type ConfigurationError struct {
	Type     models.AlertType
	Severity models.Severity
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no recommended actions configured for %s/%s", e.Type, e.Severity)
}

type Options struct {
	// TTLs applied when the event does not carry an explicit expiry.
	SensorTTL  time.Duration
	AnomalyTTL time.Duration
	// Now is swapped out in tests.
	Now func() time.Time
}

type Factory struct {
	actions    map[models.AlertType]map[models.Severity][]string
	sensorTTL  time.Duration
	anomalyTTL time.Duration
	now        func() time.Time
}

// NewFactory validates the action table eagerly: every (type, severity)
// pair the classifier can produce must have at least one action.
func NewFactory(opts Options) (*Factory, error) {
	f := &Factory{
		actions:    defaultActions(),
		sensorTTL:  opts.SensorTTL,
		anomalyTTL: opts.AnomalyTTL,
		now:        opts.Now,
	}
	if f.sensorTTL <= 0 {
		f.sensorTTL = defaultSensorTTL
	}
	if f.anomalyTTL <= 0 {
		f.anomalyTTL = defaultAnomalyTTL
	}
	if f.now == nil {
		f.now = time.Now
	}

	for _, t := range models.AlertTypes() {
		for sev := models.SeverityLow; sev <= models.SeverityCritical; sev++ {
			if len(f.actions[t][sev]) == 0 {
				return nil, &ConfigurationError{Type: t, Severity: sev}
			}
		}
	}
	return f, nil
}

// FromMeasurement builds an alert from a classified sensor reading.
func (f *Factory) FromMeasurement(m models.Measurement, c classifier.Classification) *models.Alert {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = f.now()
	}
	expiry := f.now().Add(f.sensorTTL)

	return &models.Alert{
		ID:                 buildID(measurementIDPrefix, ts, m.Type),
		CreatedAt:          ts.UTC(),
		Type:               c.AlertType,
		Severity:           c.Severity,
		Latitude:           m.Latitude,
		Longitude:          m.Longitude,
		Title:              measurementTitle(m),
		Description:        measurementDescription(m),
		RecommendedActions: f.RecommendedActions(c.AlertType, c.Severity),
		AffectedAreas:      affectedAreas(m.Latitude, m.Longitude, c.AlertType),
		ExpiresAt:          &expiry,
		SourceData: map[string]any{
			"measurement_type": m.Type,
			"value":            m.Value,
		},
		IsActive: true,
	}
}

// FromAnomaly builds an alert from a detector finding.
func (f *Factory) FromAnomaly(a models.Anomaly, c classifier.Classification) *models.Alert {
	ts := a.Timestamp
	if ts.IsZero() {
		ts = f.now()
	}
	expiry := f.now().Add(f.anomalyTTL)

	description := a.Description
	if description == "" {
		description = fmt.Sprintf("%s detected at coordinates %.4f, %.4f (confidence %.2f).",
			c.AlertType.DisplayName(), a.Latitude, a.Longitude, a.Confidence)
	}

	source := map[string]any{
		"anomaly_type":         a.Kind,
		"detection_confidence": a.Confidence,
	}
	if len(a.BoundingRegion) > 0 {
		source["bounding_region"] = a.BoundingRegion
	}

	return &models.Alert{
		ID:                 buildID(anomalyIDPrefix, ts, a.Kind),
		CreatedAt:          ts.UTC(),
		Type:               c.AlertType,
		Severity:           c.Severity,
		Latitude:           a.Latitude,
		Longitude:          a.Longitude,
		Title:              fmt.Sprintf("%s Detected", c.AlertType.DisplayName()),
		Description:        description,
		RecommendedActions: f.RecommendedActions(c.AlertType, c.Severity),
		AffectedAreas:      affectedAreas(a.Latitude, a.Longitude, c.AlertType),
		ExpiresAt:          &expiry,
		SourceData:         source,
		IsActive:           true,
	}
}

// RecommendedActions never returns an empty list for a valid pair; the
// constructor guarantees coverage.
func (f *Factory) RecommendedActions(t models.AlertType, s models.Severity) []string {
	actions := f.actions[t][s]
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// Rediscriminate returns a copy of the ID with a fresh discriminator, for
// retrying an insert that collided with an existing alert.
func Rediscriminate(id string) string {
	return id + "_" + uuid.NewString()[:8]
}

func buildID(prefix string, ts time.Time, kind string) string {
	id := fmt.Sprintf("%s_%s", prefix, ts.UTC().Format("20060102_150405"))
	if kind != "" {
		id += "_" + kind
	}
	return id
}

func measurementTitle(m models.Measurement) string {
	switch m.Type {
	case "sea_level_rise":
		return fmt.Sprintf("Sea Level Rise Alert - %.2fm above normal", m.Value)
	case "wave_height":
		return fmt.Sprintf("High Wave Alert - %.2fm waves detected", m.Value)
	case "wind_speed":
		return fmt.Sprintf("High Wind Alert - %.1f m/s winds", m.Value)
	case "pollution":
		return fmt.Sprintf("Pollution Alert - Index %.0f", m.Value)
	default:
		return fmt.Sprintf("Environmental Alert - %s", m.Type)
	}
}

func measurementDescription(m models.Measurement) string {
	coords := fmt.Sprintf("%.4f, %.4f", m.Latitude, m.Longitude)
	switch m.Type {
	case "sea_level_rise":
		return fmt.Sprintf("Sea level has risen to %.2fm above normal levels at coordinates %s. This may indicate storm surge or long-term sea level rise.", m.Value, coords)
	case "wave_height":
		return fmt.Sprintf("Wave heights of %.2fm have been detected at coordinates %s. This poses risks to coastal areas and marine activities.", m.Value, coords)
	case "wind_speed":
		return fmt.Sprintf("Wind speeds of %.1f m/s have been recorded at coordinates %s. This may affect marine operations and coastal safety.", m.Value, coords)
	case "pollution":
		return fmt.Sprintf("Pollution levels have reached index %.0f at coordinates %s. This may pose health and environmental risks.", m.Value, coords)
	default:
		return fmt.Sprintf("Abnormal %s detected: %v", m.Type, m.Value)
	}
}

// affectedAreas produces coarse descriptive strings, not geometry. The
// radius depends on how far the threat type typically reaches.
func affectedAreas(lat, lon float64, t models.AlertType) []string {
	var radiusKm float64
	switch t {
	case models.AlertTypeStormSurge, models.AlertTypeTsunamiWarning:
		radiusKm = 5.0
	case models.AlertTypeOilSpill, models.AlertTypePollutionEvent:
		radiusKm = 2.0
	default:
		radiusKm = 1.0
	}

	return []string{
		fmt.Sprintf("Coastal area within %.0fkm of %.3f, %.3f", radiusKm, lat, lon),
		"Nearby fishing communities",
		"Marine protected areas in vicinity",
	}
}
