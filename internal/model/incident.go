package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NoInfo is the explicit unknown-value marker used wherever an extraction
// or manual entry could not establish a fact. It is distinct from zero and
// survives serialization round trips.
const NoInfo = "No Info"

// Attack status values produced by extraction and manual entry.
const (
	StatusSuccessful  = "successful"
	StatusIntercepted = "intercepted"
	StatusAttempted   = "attempted"
)

// Attacker party codes. Persisted records and the map layer use the short
// codes; extraction results arrive as country names.
const (
	AttackerIsrael = "1"
	AttackerIran   = "2"
)

// NormalizeAttacker maps a country name or code to the canonical party code.
// Returns "" when the value names neither party.
func NormalizeAttacker(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "israel", AttackerIsrael:
		return AttackerIsrael
	case "iran", AttackerIran:
		return AttackerIran
	}
	return ""
}

// AttackerName is the inverse of NormalizeAttacker, for display.
func AttackerName(code string) string {
	switch code {
	case AttackerIsrael:
		return "Israel"
	case AttackerIran:
		return "Iran"
	}
	return NoInfo
}

// Count is a tri-state non-negative integer: a known value or unknown.
// On the wire it is a JSON number when known and the "No Info" sentinel
// string when not; it is never silently coerced to zero.
type Count struct {
	Known bool
	Value int
}

// KnownCount returns a Count carrying n.
func KnownCount(n int) Count {
	return Count{Known: true, Value: n}
}

// UnknownCount returns the unknown sentinel value.
func UnknownCount() Count {
	return Count{}
}

// ParseCount interprets free-form input: a non-negative integer is known,
// anything else (including "no info" and blanks) is unknown.
func ParseCount(s string) Count {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NoInfo) {
		return UnknownCount()
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return UnknownCount()
	}
	return KnownCount(n)
}

func (c Count) String() string {
	if !c.Known {
		return NoInfo
	}
	return strconv.Itoa(c.Value)
}

// MarshalJSON emits a number when known, the sentinel string otherwise.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return json.Marshal(NoInfo)
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON accepts a number, a numeric string, the sentinel, or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			*c = UnknownCount()
			return nil
		}
		*c = KnownCount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ParseCount(s)
		return nil
	}
	*c = UnknownCount()
	return nil
}

// TriBool is a boolean that can also be unknown. Unknown marshals as null.
type TriBool struct {
	Known bool
	Value bool
}

// True and False return known TriBool values.
func True() TriBool  { return TriBool{Known: true, Value: true} }
func False() TriBool { return TriBool{Known: true, Value: false} }

func (b TriBool) MarshalJSON() ([]byte, error) {
	if !b.Known {
		return []byte("null"), nil
	}
	return json.Marshal(b.Value)
}

func (b *TriBool) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		*b = TriBool{}
		return nil
	}
	if v == nil {
		*b = TriBool{}
		return nil
	}
	*b = TriBool{Known: true, Value: *v}
	return nil
}

// Casualties carries the tri-state dead/wounded figures for one location.
type Casualties struct {
	Dead    Count `json:"dead"`
	Wounded Count `json:"wounded"`
}

// LocationFact is one geocoded attack fact attached to an incident.
// Lat/Lon (0,0) is the sentinel for "coordinates unknown".
type LocationFact struct {
	Name          string     `json:"name"`
	Lat           float64    `json:"lat"`
	Lon           float64    `json:"lon"`
	Attacker      string     `json:"attacker"`
	TargetType    string     `json:"targetType"`
	AttackTime    string     `json:"attackTime"`
	AttackStatus  string     `json:"attackStatus"`
	Casualties    Casualties `json:"casualties"`
	WeaponType    string     `json:"weaponType"`
	WeaponDetails string     `json:"weaponDetails,omitempty"`
	ImpactRadius  float64    `json:"impactRadius,omitempty"`
	IsToday       TriBool    `json:"isToday"`
}

// HasCoordinates reports whether the location carries real coordinates.
func (l LocationFact) HasCoordinates() bool {
	return l.Lat != 0 || l.Lon != 0
}

// IncidentRecord is the unit of persistence and display. Timestamp is the
// point in time the underlying event refers to and serializes as ISO-8601.
type IncidentRecord struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	URL         string         `json:"url"`
	Timestamp   time.Time      `json:"timestamp"`
	Locations   []LocationFact `json:"locations"`
}

// ManualPrefix distinguishes manually entered records; they survive
// automated clear/refresh cycles.
const ManualPrefix = "manual-"

// IsManualID reports whether an id belongs to a manually entered record.
func IsManualID(id string) bool {
	return strings.HasPrefix(id, ManualPrefix)
}

// IsManual reports whether the record was entered manually.
func (r IncidentRecord) IsManual() bool {
	return IsManualID(r.ID)
}

// Fingerprint is the session dedup key for an article title.
func Fingerprint(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

var idStrip = regexp.MustCompile(`[^a-z0-9]`)

// AutoID derives a stable record id from an article title: lower-cased,
// stripped of non-alphanumerics, truncated to 32 characters. Collisions
// are treated as "already processed".
func AutoID(title string) string {
	id := idStrip.ReplaceAllString(strings.ToLower(title), "")
	if len(id) > 32 {
		id = id[:32]
	}
	return id
}

// ManualID builds an id for a manually entered record from the submission
// time and the city name.
func ManualID(at time.Time, city string) string {
	return fmt.Sprintf("%s%d-%s", ManualPrefix, at.UnixMilli(), strings.ReplaceAll(city, " ", "-"))
}
