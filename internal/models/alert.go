package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity is a totally ordered threat level. Comparisons with < and >=
// are meaningful: Low < Medium < High < Critical.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity accepts the canonical name in any case ("high", "HIGH").
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(s) {
	case "LOW":
		return SeverityLow, true
	case "MEDIUM":
		return SeverityMedium, true
	case "HIGH":
		return SeverityHigh, true
	case "CRITICAL":
		return SeverityCritical, true
	default:
		return SeverityLow, false
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sev, ok := ParseSeverity(raw)
	if !ok {
		return fmt.Errorf("unknown severity: %q", raw)
	}
	*s = sev
	return nil
}

type AlertType string

const (
	AlertTypeStormSurge               AlertType = "storm_surge"
	AlertTypeCoastalErosion           AlertType = "coastal_erosion"
	AlertTypeSeaLevelRise             AlertType = "sea_level_rise"
	AlertTypeOilSpill                 AlertType = "oil_spill"
	AlertTypeIllegalDumping           AlertType = "illegal_dumping"
	AlertTypeAlgalBloom               AlertType = "algal_bloom"
	AlertTypeExtremeWeather           AlertType = "extreme_weather"
	AlertTypeUnauthorizedConstruction AlertType = "unauthorized_construction"
	AlertTypeTsunamiWarning           AlertType = "tsunami_warning"
	AlertTypePollutionEvent           AlertType = "pollution_event"
)

// AlertTypes lists every valid alert type. The factory validates its action
// table against this set at startup.
func AlertTypes() []AlertType {
	return []AlertType{
		AlertTypeStormSurge,
		AlertTypeCoastalErosion,
		AlertTypeSeaLevelRise,
		AlertTypeOilSpill,
		AlertTypeIllegalDumping,
		AlertTypeAlgalBloom,
		AlertTypeExtremeWeather,
		AlertTypeUnauthorizedConstruction,
		AlertTypeTsunamiWarning,
		AlertTypePollutionEvent,
	}
}

func (t AlertType) Valid() bool {
	for _, known := range AlertTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// DisplayName renders "oil_spill" as "Oil Spill".
func (t AlertType) DisplayName() string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Alert is a single classified threat tied to a location and time window.
// Type and Severity never change after creation; only the activity state
// (IsActive, expiry) evolves.
type Alert struct {
	ID                 string         `json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	Type               AlertType      `json:"alert_type"`
	Severity           Severity       `json:"severity"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	RecommendedActions []string       `json:"recommended_actions"`
	AffectedAreas      []string       `json:"affected_areas"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	SourceData         map[string]any `json:"source_data,omitempty"`
	IsActive           bool           `json:"is_active"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ActiveAt reports whether the alert is live at the given instant: still
// flagged active and not past its expiry (alerts without an expiry stay
// live until deactivated).
func (a *Alert) ActiveAt(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && !now.Before(*a.ExpiresAt) {
		return false
	}
	return true
}
