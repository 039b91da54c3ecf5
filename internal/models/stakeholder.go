package models

type ChannelType string

const (
	ChannelSMS     ChannelType = "sms"
	ChannelEmail   ChannelType = "email"
	ChannelWebhook ChannelType = "webhook"
)

func (c ChannelType) Valid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelWebhook:
		return true
	}
	return false
}

// NotificationChannel is one delivery target owned by a stakeholder.
// An empty AlertTypes filter accepts all alert types.
type NotificationChannel struct {
	Type        ChannelType `json:"channel_type"`
	Target      string      `json:"target"`
	IsActive    bool        `json:"is_active"`
	AlertTypes  []AlertType `json:"alert_type_filter,omitempty"`
	MinSeverity Severity    `json:"min_severity"`
}

// Accepts reports whether this channel wants the given alert. Geographic
// containment is the directory's concern; this only checks the channel's
// own filters.
func (c NotificationChannel) Accepts(a *Alert) bool {
	if !c.IsActive {
		return false
	}
	if a.Severity < c.MinSeverity {
		return false
	}
	if len(c.AlertTypes) == 0 {
		return true
	}
	for _, t := range c.AlertTypes {
		if t == a.Type {
			return true
		}
	}
	return false
}

// GeoArea is a circular area of interest. RadiusKm is inclusive: a point
// exactly on the boundary is inside.
type GeoArea struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// Stakeholder is a registered alert recipient, scoped by geography and
// per-channel filters. One with no active channels or no areas simply
// never matches anything.
type Stakeholder struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Organization    string                `json:"organization"`
	Role            string                `json:"role"`
	ContactInfo     map[string]string     `json:"contact_info,omitempty"`
	Channels        []NotificationChannel `json:"channels"`
	GeographicAreas []GeoArea             `json:"geographic_areas"`
}
