package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

// smsMaxRunes is the classic single-segment SMS limit. Composed messages
// beyond it are cut deterministically.
const smsMaxRunes = 160

func severityPrefix(s models.Severity) string {
	switch s {
	case models.SeverityLow:
		return "\U0001F7E1" // yellow circle
	case models.SeverityMedium:
		return "\U0001F7E0" // orange circle
	case models.SeverityHigh:
		return "\U0001F534" // red circle
	case models.SeverityCritical:
		return "\U0001F6A8" // rotating light
	default:
		return "⚠️"
	}
}

func renderSMS(a *models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s COASTAL ALERT\n", severityPrefix(a.Severity))
	fmt.Fprintf(&b, "%s\n", a.Title)
	fmt.Fprintf(&b, "Location: %.3f, %.3f\n", a.Latitude, a.Longitude)
	if len(a.RecommendedActions) > 0 {
		fmt.Fprintf(&b, "Action: %s\n", a.RecommendedActions[0])
	}
	fmt.Fprintf(&b, "Alert ID: %s", a.ID)

	msg := b.String()
	if runes := []rune(msg); len(runes) > smsMaxRunes {
		return string(runes[:smsMaxRunes])
	}
	return msg
}

// renderEmail produces the full message body handed to the email provider:
// subject and MIME headers followed by an HTML document.
func renderEmail(a *models.Alert, s models.Stakeholder) string {
	headerColor := "orange"
	if a.Severity >= models.SeverityHigh {
		headerColor = "red"
	}

	expiry := "No expiration"
	if a.ExpiresAt != nil {
		expiry = a.ExpiresAt.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: Coastal Alert: %s (%s)\r\n", a.Title, a.Severity)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")

	b.WriteString("<html><body>\n")
	fmt.Fprintf(&b, "<h2 style=\"color: %s\">Coastal Threat Alert</h2>\n", headerColor)

	b.WriteString("<table border=\"1\" cellpadding=\"5\" cellspacing=\"0\">\n")
	fmt.Fprintf(&b, "<tr><td><strong>Alert ID:</strong></td><td>%s</td></tr>\n", a.ID)
	fmt.Fprintf(&b, "<tr><td><strong>Type:</strong></td><td>%s</td></tr>\n", a.Type.DisplayName())
	fmt.Fprintf(&b, "<tr><td><strong>Severity:</strong></td><td>%s</td></tr>\n", a.Severity)
	fmt.Fprintf(&b, "<tr><td><strong>Time:</strong></td><td>%s</td></tr>\n", a.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "<tr><td><strong>Location:</strong></td><td>%.4f, %.4f</td></tr>\n", a.Latitude, a.Longitude)
	b.WriteString("</table>\n")

	fmt.Fprintf(&b, "<h3>Description</h3>\n<p>%s</p>\n", a.Description)

	b.WriteString("<h3>Recommended Actions</h3>\n<ul>\n")
	for _, action := range a.RecommendedActions {
		fmt.Fprintf(&b, "<li>%s</li>\n", action)
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h3>Affected Areas</h3>\n<ul>\n")
	for _, area := range a.AffectedAreas {
		fmt.Fprintf(&b, "<li>%s</li>\n", area)
	}
	b.WriteString("</ul>\n")

	fmt.Fprintf(&b, "<p><strong>This alert expires at:</strong> %s</p>\n", expiry)
	b.WriteString("<hr>\n")
	fmt.Fprintf(&b, "<p><small>This alert was sent to %s (%s) by the coastal alert system.</small></p>\n", s.Name, s.Organization)
	b.WriteString("</body></html>\n")

	return b.String()
}

// webhookPayload carries every alert field plus the target stakeholder.
type webhookPayload struct {
	AlertID            string         `json:"alert_id"`
	CreatedAt          time.Time      `json:"created_at"`
	AlertType          string         `json:"alert_type"`
	Severity           string         `json:"severity"`
	Latitude           float64        `json:"latitude"`
	Longitude          float64        `json:"longitude"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	RecommendedActions []string       `json:"recommended_actions"`
	AffectedAreas      []string       `json:"affected_areas"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	SourceData         map[string]any `json:"source_data,omitempty"`
	IsActive           bool           `json:"is_active"`
	StakeholderID      string         `json:"stakeholder_id"`
}

func renderWebhook(a *models.Alert, s models.Stakeholder) (string, error) {
	payload := webhookPayload{
		AlertID:            a.ID,
		CreatedAt:          a.CreatedAt,
		AlertType:          string(a.Type),
		Severity:           a.Severity.String(),
		Latitude:           a.Latitude,
		Longitude:          a.Longitude,
		Title:              a.Title,
		Description:        a.Description,
		RecommendedActions: a.RecommendedActions,
		AffectedAreas:      a.AffectedAreas,
		ExpiresAt:          a.ExpiresAt,
		SourceData:         a.SourceData,
		IsActive:           a.IsActive,
		StakeholderID:      s.ID,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error encoding webhook payload: %w", err)
	}
	return string(raw), nil
}
