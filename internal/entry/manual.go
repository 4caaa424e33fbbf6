package entry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oghuzrustamli/iranisrael/internal/geo"
	"github.com/oghuzrustamli/iranisrael/internal/model"
	"github.com/oghuzrustamli/iranisrael/internal/store"
)

// Form is a manual incident submission. Cities and Weapons hold one or
// more entries; casualty figures arrive as free-form strings so "No Info"
// and blanks stay distinguishable from zero.
type Form struct {
	// Country is the attacking party, by name or code.
	Country        string
	Cities         []string
	TargetLocation string
	Weapons        []string
	Deaths         string
	Injured        string
	// Date is the day of the event; submission time is used when zero.
	Date          time.Time
	WeaponDetails string
	// ImpactRadius in meters draws an impact circle when positive.
	ImpactRadius float64
}

// Validate checks the form for the fields a record cannot be built
// without. Unlike the automated pipeline, failures here surface to the
// person submitting.
func (f *Form) Validate() error {
	if model.NormalizeAttacker(f.Country) == "" {
		return fmt.Errorf("unknown attacking country %q (expected Israel or Iran)", f.Country)
	}
	if len(f.Cities) == 0 {
		return fmt.Errorf("at least one city is required")
	}
	for _, city := range f.Cities {
		if strings.TrimSpace(city) == "" {
			return fmt.Errorf("city names must not be blank")
		}
	}
	if len(f.Weapons) == 0 {
		return fmt.Errorf("at least one weapon type is required")
	}
	if f.ImpactRadius < 0 {
		return fmt.Errorf("impact radius must not be negative")
	}
	return nil
}

// Submit validates the form and writes one record per city. Manual
// records use the manual id scheme so clear and refresh cycles keep
// them. A city the gazetteer cannot resolve fails the whole submission;
// nothing is written before validation and resolution pass.
func Submit(ctx context.Context, form Form, gazetteer *geo.Gazetteer, incidents *store.Incidents, clock clockwork.Clock) ([]model.IncidentRecord, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	attacker := model.NormalizeAttacker(form.Country)
	now := clock.Now()
	date := form.Date
	if date.IsZero() {
		date = now
	}

	locations := make([]geo.Location, 0, len(form.Cities))
	for _, city := range form.Cities {
		loc, ok := gazetteer.Lookup(city)
		if !ok {
			return nil, fmt.Errorf("unknown city %q", city)
		}
		locations = append(locations, loc)
	}

	weapons := strings.Join(form.Weapons, ", ")
	description := fmt.Sprintf("%s attacked %s using %s",
		model.AttackerName(attacker), strings.Join(form.Cities, ", "), weapons)

	records := make([]model.IncidentRecord, 0, len(locations))
	for _, loc := range locations {
		target := form.TargetLocation
		if strings.TrimSpace(target) == "" {
			target = model.NoInfo
		}
		rec := model.IncidentRecord{
			ID:          model.ManualID(now, loc.Name),
			Title:       fmt.Sprintf("Manual entry: attack on %s", loc.Name),
			Description: description,
			Source:      "Manual Entry",
			Timestamp:   date,
			Locations: []model.LocationFact{{
				Name:         loc.Name,
				Lat:          loc.Lat,
				Lon:          loc.Lon,
				Attacker:     attacker,
				TargetType:   target,
				AttackTime:   date.Format("2006-01-02"),
				AttackStatus: model.StatusSuccessful,
				Casualties: model.Casualties{
					Dead:    model.ParseCount(form.Deaths),
					Wounded: model.ParseCount(form.Injured),
				},
				WeaponType:    weapons,
				WeaponDetails: form.WeaponDetails,
				ImpactRadius:  form.ImpactRadius,
				IsToday:       model.True(),
			}},
		}
		if err := incidents.Upsert(ctx, rec); err != nil {
			return records, fmt.Errorf("store manual incident: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
