package api

import (
	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(alerts []models.Alert) FeatureCollection {
	features := make([]Feature, 0, len(alerts))

	for _, a := range alerts {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{a.Longitude, a.Latitude},
			},
			Properties: map[string]any{
				"id":                  a.ID,
				"alert_type":          string(a.Type),
				"severity":            a.Severity.String(),
				"title":               a.Title,
				"description":         a.Description,
				"recommended_actions": a.RecommendedActions,
				"affected_areas":      a.AffectedAreas,
				"created_at":          a.CreatedAt,
				"expires_at":          a.ExpiresAt,
				"is_active":           a.IsActive,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
