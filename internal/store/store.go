package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/oghuzrustamli/iranisrael/internal/mapview"
	"github.com/oghuzrustamli/iranisrael/internal/model"
)

// collectionPrefix is the document namespace for incident records.
const collectionPrefix = "news"

// legacyManualPath is the single document some old manual entries were
// written to before per-record paths; Remove still checks it.
const legacyManualPath = collectionPrefix + "/manual"

// Incidents is the reconciled incident store: an in-memory map of records
// written through to the persistent document store and mirrored onto the
// map view. Memory stays authoritative when persistence fails.
type Incidents struct {
	docs   DocStore
	view   mapview.View
	logger *slog.Logger

	mu    sync.RWMutex
	items map[string]model.IncidentRecord
}

// NewIncidents creates an empty incident store.
func NewIncidents(docs DocStore, view mapview.View, logger *slog.Logger) *Incidents {
	if view == nil {
		view = mapview.NopView{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Incidents{
		docs:   docs,
		view:   view,
		logger: logger,
		items:  make(map[string]model.IncidentRecord),
	}
}

func docPath(id string) string {
	return collectionPrefix + "/" + id
}

func markerID(rec model.IncidentRecord) string {
	if len(rec.Locations) == 0 {
		return rec.ID
	}
	return rec.ID + "-" + rec.Locations[0].Name
}

// Load replaces in-memory state with the persisted collection and
// re-renders every record. An empty or unreachable store is a valid
// startup state, logged but not surfaced.
func (s *Incidents) Load(ctx context.Context) {
	docs, err := s.docs.List(ctx, collectionPrefix)
	if err != nil {
		s.logger.Warn("loading persisted incidents failed", "error", err)
		return
	}

	s.mu.Lock()
	s.items = make(map[string]model.IncidentRecord, len(docs))
	s.view.ClearAllIncidents()
	for path, data := range docs {
		var rec model.IncidentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("skipping malformed incident document", "path", path, "error", err)
			continue
		}
		if rec.ID == "" {
			rec.ID = strings.TrimPrefix(path, collectionPrefix+"/")
		}
		s.items[rec.ID] = rec
		s.render(rec)
	}
	count := len(s.items)
	s.mu.Unlock()

	s.logger.Info("loaded persisted incidents", "count", count)
}

func (s *Incidents) render(rec model.IncidentRecord) {
	if len(rec.Locations) == 0 {
		return
	}
	s.view.AddIncident(markerID(rec), rec.Locations[0], mapview.Details{
		Title:       rec.Title,
		Description: rec.Description,
		Timestamp:   rec.Timestamp,
	})
}

// Upsert writes a record through to memory, the map view, and the
// document store. The write is a full overwrite at the record's path; an
// edit replaces the old visual artifacts. A persistence failure is
// returned after memory and the view are updated.
func (s *Incidents) Upsert(ctx context.Context, rec model.IncidentRecord) error {
	s.mu.Lock()
	if old, ok := s.items[rec.ID]; ok {
		s.view.RemoveIncident(markerID(old))
	}
	s.items[rec.ID] = rec
	s.render(rec)
	s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal incident: %w", err)
	}
	if err := s.docs.Set(ctx, docPath(rec.ID), data); err != nil {
		s.logger.Error("persisting incident failed", "id", rec.ID, "error", err)
		return fmt.Errorf("persist incident: %w", err)
	}
	return nil
}

// Remove deletes a record from memory, the map view, and persistence.
// "Not found" is a no-op: manual-entry id schemes have legacy variants,
// so Remove also probes the old shared manual document.
func (s *Incidents) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if rec, ok := s.items[id]; ok {
		s.view.RemoveIncident(markerID(rec))
		delete(s.items, id)
	}
	s.mu.Unlock()

	err := s.docs.Remove(ctx, docPath(id))
	if errors.Is(err, ErrNotFound) && model.IsManualID(id) {
		err = s.docs.Remove(ctx, legacyManualPath)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("removing persisted incident failed", "id", id, "error", err)
		return fmt.Errorf("remove incident: %w", err)
	}
	return nil
}

// ClearAutomatedPreserveManual wipes automated records from memory, the
// view, and persistence, keeping manually entered records and
// re-rendering them.
func (s *Incidents) ClearAutomatedPreserveManual(ctx context.Context) error {
	s.mu.Lock()
	var automated []string
	manual := make(map[string]model.IncidentRecord)
	for id, rec := range s.items {
		if rec.IsManual() {
			manual[id] = rec
		} else {
			automated = append(automated, id)
		}
	}
	s.items = manual
	s.view.ClearAllIncidents()
	for _, rec := range manual {
		s.render(rec)
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range automated {
		if err := s.docs.Remove(ctx, docPath(id)); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Error("removing automated incident failed", "id", id, "error", err)
			errs = append(errs, err)
		}
	}
	if err := s.SaveAll(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SaveAll persists the full in-memory collection. Individual write
// failures are logged and aggregated; memory stays authoritative.
func (s *Incidents) SaveAll(ctx context.Context) error {
	s.mu.RLock()
	records := make([]model.IncidentRecord, 0, len(s.items))
	for _, rec := range s.items {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	var errs []error
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.docs.Set(ctx, docPath(rec.ID), data); err != nil {
			s.logger.Error("persisting incident failed", "id", rec.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Has reports whether a record with id exists in memory.
func (s *Incidents) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Get returns the record with id, if present.
func (s *Incidents) Get(id string) (model.IncidentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[id]
	return rec, ok
}

// Items returns a snapshot of all records, newest first.
func (s *Incidents) Items() []model.IncidentRecord {
	s.mu.RLock()
	records := make([]model.IncidentRecord, 0, len(s.items))
	for _, rec := range s.items {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records
}

// Len reports the number of records in memory.
func (s *Incidents) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
