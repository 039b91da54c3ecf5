// Package classifier turns raw measurements and anomaly detections into
// (alert type, severity) classifications based on configured rules.
package classifier

import (
	"log/slog"
	"sort"

	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

// Breakpoint assigns a severity to all values at or above Value, until a
// larger breakpoint takes over.
type Breakpoint struct {
	Value    float64
	Severity models.Severity
}

// Rule classifies one measurement type. Values below Threshold produce no
// alert at all; at or above it, the severity of the highest breakpoint not
// exceeding the value wins.
type Rule struct {
	Threshold   float64
	AlertType   models.AlertType
	Breakpoints []Breakpoint
}

// Thresholds overrides the activation threshold per measurement type.
// Zero values keep the defaults.
type Thresholds struct {
	SeaLevelRise float64
	WaveHeight   float64
	WindSpeed    float64
	Pollution    float64
}

// DefaultRules returns the rule table for the supported measurement types.
func DefaultRules(t Thresholds) map[string]Rule {
	rules := map[string]Rule{
		"sea_level_rise": {
			Threshold: 0.5,
			AlertType: models.AlertTypeSeaLevelRise,
			Breakpoints: []Breakpoint{
				{0.3, models.SeverityLow},
				{0.5, models.SeverityMedium},
				{0.8, models.SeverityHigh},
				{1.0, models.SeverityCritical},
			},
		},
		"wave_height": {
			Threshold: 3.0,
			AlertType: models.AlertTypeStormSurge,
			Breakpoints: []Breakpoint{
				{2.0, models.SeverityLow},
				{3.0, models.SeverityMedium},
				{4.5, models.SeverityHigh},
				{6.0, models.SeverityCritical},
			},
		},
		"wind_speed": {
			Threshold: 25.0,
			AlertType: models.AlertTypeExtremeWeather,
			Breakpoints: []Breakpoint{
				{20.0, models.SeverityLow},
				{25.0, models.SeverityMedium},
				{35.0, models.SeverityHigh},
				{50.0, models.SeverityCritical},
			},
		},
		"pollution": {
			Threshold: 100,
			AlertType: models.AlertTypePollutionEvent,
			Breakpoints: []Breakpoint{
				{80, models.SeverityLow},
				{100, models.SeverityMedium},
				{150, models.SeverityHigh},
				{200, models.SeverityCritical},
			},
		},
	}

	override := func(name string, threshold float64) {
		if threshold <= 0 {
			return
		}
		r := rules[name]
		r.Threshold = threshold
		rules[name] = r
	}
	override("sea_level_rise", t.SeaLevelRise)
	override("wave_height", t.WaveHeight)
	override("wind_speed", t.WindSpeed)
	override("pollution", t.Pollution)

	return rules
}

type Classification struct {
	AlertType models.AlertType
	Severity  models.Severity
}

type Classifier struct {
	rules map[string]Rule
}

func New(rules map[string]Rule) *Classifier {
	// Breakpoint order matters: the last breakpoint <= value wins.
	for name, r := range rules {
		sort.Slice(r.Breakpoints, func(i, j int) bool {
			return r.Breakpoints[i].Value < r.Breakpoints[j].Value
		})
		rules[name] = r
	}
	return &Classifier{rules: rules}
}

// ClassifyMeasurement returns the classification for a sensor reading, or
// ok=false when no alert should be produced (value below threshold or
// unknown measurement type). Neither case is an error.
func (c *Classifier) ClassifyMeasurement(m models.Measurement) (Classification, bool) {
	rule, ok := c.rules[m.Type]
	if !ok {
		slog.Debug("no rule for measurement type", "measurement_type", m.Type)
		return Classification{}, false
	}
	if m.Value < rule.Threshold {
		return Classification{}, false
	}

	severity := models.SeverityLow
	for _, bp := range rule.Breakpoints {
		if m.Value >= bp.Value {
			severity = bp.Severity
		}
	}

	return Classification{AlertType: rule.AlertType, Severity: severity}, true
}

// ClassifyAnomaly maps a detector's anomaly kind and severity hint onto
// alert taxonomy. Unknown kinds fall back to a pollution event, unknown
// hints to MEDIUM; anomaly events always produce a classification.
func ClassifyAnomaly(a models.Anomaly) Classification {
	alertType := models.AlertTypePollutionEvent
	switch a.Kind {
	case "oil_spill":
		alertType = models.AlertTypeOilSpill
	case "illegal_dumping":
		alertType = models.AlertTypeIllegalDumping
	case "algal_bloom":
		alertType = models.AlertTypeAlgalBloom
	case "unauthorized_construction":
		alertType = models.AlertTypeUnauthorizedConstruction
	case "pollution_event":
		alertType = models.AlertTypePollutionEvent
	default:
		slog.Debug("unmapped anomaly kind", "anomaly_type", a.Kind)
	}

	severity, ok := models.ParseSeverity(a.SeverityHint)
	if !ok {
		severity = models.SeverityMedium
	}

	return Classification{AlertType: alertType, Severity: severity}
}
