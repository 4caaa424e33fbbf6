package mapview

import (
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/oghuzrustamli/iranisrael/internal/model"
)

// GeoJSONView renders incidents to a GeoJSON FeatureCollection on disk.
// Each incident becomes a point marker; locations with an impact radius
// additionally get a circle polygon. The file is rewritten on every
// mutation so any map frontend can poll it.
type GeoJSONView struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	features map[string][]feature
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// NewGeoJSONView creates a view writing to path.
func NewGeoJSONView(path string, logger *slog.Logger) *GeoJSONView {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoJSONView{
		path:     path,
		logger:   logger,
		features: make(map[string][]feature),
	}
}

// AddIncident renders one marker (replacing any previous marker with the
// same id, so edits show the latest state). Locations without real
// coordinates are skipped.
func (v *GeoJSONView) AddIncident(id string, loc model.LocationFact, d Details) {
	if !loc.HasCoordinates() {
		return
	}

	props := map[string]any{
		"id":           id,
		"title":        d.Title,
		"description":  d.Description,
		"timestamp":    d.Timestamp.UTC(),
		"name":         loc.Name,
		"attacker":     model.AttackerName(loc.Attacker),
		"targetType":   loc.TargetType,
		"attackStatus": loc.AttackStatus,
		"weaponType":   loc.WeaponType,
		"dead":         loc.Casualties.Dead.String(),
		"wounded":      loc.Casualties.Wounded.String(),
	}
	if loc.WeaponDetails != "" {
		props["weaponDetails"] = loc.WeaponDetails
	}

	fs := []feature{{
		Type: "Feature",
		Geometry: geometry{
			Type:        "Point",
			Coordinates: []float64{loc.Lon, loc.Lat},
		},
		Properties: props,
	}}

	if loc.ImpactRadius > 0 {
		fs = append(fs, feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Polygon",
				Coordinates: [][][]float64{circleRing(loc.Lat, loc.Lon, loc.ImpactRadius)},
			},
			Properties: map[string]any{
				"id":           id + "-impact",
				"impactRadius": loc.ImpactRadius,
			},
		})
	}

	v.mu.Lock()
	v.features[id] = fs
	v.mu.Unlock()
	v.flush()
}

// RemoveIncident drops a marker and its impact overlay.
func (v *GeoJSONView) RemoveIncident(id string) {
	v.mu.Lock()
	delete(v.features, id)
	v.mu.Unlock()
	v.flush()
}

// ClearAllIncidents wipes the layer.
func (v *GeoJSONView) ClearAllIncidents() {
	v.mu.Lock()
	v.features = make(map[string][]feature)
	v.mu.Unlock()
	v.flush()
}

// UpdateStatus logs progress text; the GeoJSON layer has no status line.
func (v *GeoJSONView) UpdateStatus(status string) {
	if status != "" {
		v.logger.Info("processing status", "status", status)
	}
}

func (v *GeoJSONView) flush() {
	v.mu.Lock()
	ids := make([]string, 0, len(v.features))
	for id := range v.features {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}
	for _, id := range ids {
		fc.Features = append(fc.Features, v.features[id]...)
	}
	v.mu.Unlock()

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		v.logger.Error("marshal geojson", "error", err)
		return
	}
	if err := os.WriteFile(v.path, data, 0644); err != nil {
		v.logger.Error("write geojson", "path", v.path, "error", err)
	}
}

const earthMetersPerDegree = 111320.0

// circleRing approximates a radius-in-meters circle as a closed polygon
// ring in lon/lat order.
func circleRing(lat, lon, radiusMeters float64) [][]float64 {
	const segments = 32

	latDelta := radiusMeters / earthMetersPerDegree
	lonDelta := radiusMeters / (earthMetersPerDegree * math.Cos(lat*math.Pi/180))

	ring := make([][]float64, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / segments
		ring = append(ring, []float64{
			lon + lonDelta*math.Cos(theta),
			lat + latDelta*math.Sin(theta),
		})
	}
	// Close the ring on the exact first point.
	ring = append(ring, ring[0])
	return ring
}
