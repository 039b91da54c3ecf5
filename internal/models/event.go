package models

import "time"

// Measurement is a raw sensor reading. The classifier decides whether it
// crosses an alert threshold.
type Measurement struct {
	Type      string    `json:"measurement_type"`
	Value     float64   `json:"value"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Anomaly is a pre-classified detection from an upstream detector. It
// carries its own severity hint and bypasses numeric thresholds.
type Anomaly struct {
	Kind           string    `json:"anomaly_type"`
	SeverityHint   string    `json:"severity_hint"`
	Confidence     float64   `json:"confidence"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	BoundingRegion []float64 `json:"bounding_region,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Description    string    `json:"description"`
}
