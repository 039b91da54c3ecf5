// Package directory holds registered stakeholders and answers the match
// query: which (stakeholder, channel) pairs must be notified of an alert.
package directory

import (
	"sync"

	"github.com/mr1hm/go-coastal-alerts/internal/geo"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
)

// Match is one delivery obligation: this channel of this stakeholder must
// receive the alert.
type Match struct {
	Stakeholder models.Stakeholder
	Channel     models.NotificationChannel
}

type Directory struct {
	mu           sync.RWMutex
	order        []string
	stakeholders map[string]models.Stakeholder
}

func New() *Directory {
	return &Directory{
		stakeholders: make(map[string]models.Stakeholder),
	}
}

// Register adds a stakeholder, replacing any existing record with the same
// ID. Registration order is preserved for match enumeration.
func (d *Directory) Register(s models.Stakeholder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.stakeholders[s.ID]; !exists {
		d.order = append(d.order, s.ID)
	}
	d.stakeholders[s.ID] = s
}

func (d *Directory) List() []models.Stakeholder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Stakeholder, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.stakeholders[id])
	}
	return out
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.stakeholders)
}

// Match returns every qualifying (stakeholder, channel) pair exactly once.
// A stakeholder qualifies geographically when any of its areas contains
// the alert location (boundary inclusive); a channel qualifies when it is
// active, its type filter is empty or contains the alert type, and the
// alert severity is at least the channel's minimum.
func (d *Directory) Match(a *models.Alert) []Match {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var matches []Match
	for _, id := range d.order {
		s := d.stakeholders[id]

		inArea := false
		for _, area := range s.GeographicAreas {
			if geo.WithinKm(a.Latitude, a.Longitude, area.Latitude, area.Longitude, area.RadiusKm) {
				inArea = true
				break
			}
		}
		if !inArea {
			continue
		}

		for _, ch := range s.Channels {
			if ch.Accepts(a) {
				matches = append(matches, Match{Stakeholder: s, Channel: ch})
			}
		}
	}
	return matches
}
