package mapview

import (
	"time"

	"github.com/oghuzrustamli/iranisrael/internal/model"
)

// Details is the display metadata attached to a map marker.
type Details struct {
	Title       string
	Description string
	Timestamp   time.Time
}

// View is the port to the visual collaborator (map surface plus feed).
// The core calls it and never knows how markers are rendered.
type View interface {
	AddIncident(id string, loc model.LocationFact, d Details)
	RemoveIncident(id string)
	ClearAllIncidents()
	UpdateStatus(status string)
}

// NopView discards all rendering calls. Useful for headless runs.
type NopView struct{}

func (NopView) AddIncident(string, model.LocationFact, Details) {}
func (NopView) RemoveIncident(string)                           {}
func (NopView) ClearAllIncidents()                              {}
func (NopView) UpdateStatus(string)                             {}
