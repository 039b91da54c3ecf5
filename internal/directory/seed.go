package directory

import "github.com/mr1hm/go-coastal-alerts/internal/models"

// DefaultStakeholders is the seed registry loaded when SEED_STAKEHOLDERS
// is enabled: an emergency department, a fishermen's union and an
// environmental NGO covering the default monitoring area.
func DefaultStakeholders() []models.Stakeholder {
	return []models.Stakeholder{
		{
			ID:           "emergency_dept_001",
			Name:         "Coastal Emergency Department",
			Organization: "City Government",
			Role:         "emergency_manager",
			ContactInfo: map[string]string{
				"email": "emergency@city.gov",
				"phone": "+1234567890",
			},
			Channels: []models.NotificationChannel{
				{Type: models.ChannelSMS, Target: "+1234567890", IsActive: true, MinSeverity: models.SeverityMedium},
				{Type: models.ChannelEmail, Target: "emergency@city.gov", IsActive: true, MinSeverity: models.SeverityLow},
			},
			GeographicAreas: []models.GeoArea{
				{Latitude: 12.0, Longitude: 80.0, RadiusKm: 10.0},
			},
		},
		{
			ID:           "fishermen_union_001",
			Name:         "Local Fishermen Union",
			Organization: "Fishermen's Association",
			Role:         "fisherman",
			ContactInfo: map[string]string{
				"email": "union@fishermen.org",
				"phone": "+1234567892",
			},
			Channels: []models.NotificationChannel{
				{
					Type:        models.ChannelSMS,
					Target:      "+1234567892",
					IsActive:    true,
					AlertTypes:  []models.AlertType{models.AlertTypeStormSurge, models.AlertTypeExtremeWeather},
					MinSeverity: models.SeverityLow,
				},
			},
			GeographicAreas: []models.GeoArea{
				{Latitude: 12.0, Longitude: 80.0, RadiusKm: 15.0},
			},
		},
		{
			ID:           "env_ngo_001",
			Name:         "Coastal Conservation NGO",
			Organization: "Environmental Watch",
			Role:         "ngo",
			ContactInfo: map[string]string{
				"email": "alerts@envwatch.org",
			},
			Channels: []models.NotificationChannel{
				{
					Type:     models.ChannelEmail,
					Target:   "alerts@envwatch.org",
					IsActive: true,
					AlertTypes: []models.AlertType{
						models.AlertTypeOilSpill,
						models.AlertTypePollutionEvent,
						models.AlertTypeIllegalDumping,
					},
					MinSeverity: models.SeverityLow,
				},
			},
			GeographicAreas: []models.GeoArea{
				{Latitude: 13.0, Longitude: 81.0, RadiusKm: 20.0},
			},
		},
	}
}
