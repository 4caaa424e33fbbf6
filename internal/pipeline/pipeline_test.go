package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oghuzrustamli/iranisrael/internal/extract"
	"github.com/oghuzrustamli/iranisrael/internal/geo"
	"github.com/oghuzrustamli/iranisrael/internal/model"
	"github.com/oghuzrustamli/iranisrael/internal/store"
)

// fakeSource serves a fixed article set for every query.
type fakeSource struct {
	mu       sync.Mutex
	articles []model.Article
	err      error
	calls    int
	gate     chan struct{}
}

func (f *fakeSource) Search(_ context.Context, _ string) ([]model.Article, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeScheduler returns a scripted result per article text.
type fakeScheduler struct {
	mu      sync.Mutex
	results map[string]*extract.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeScheduler) Submit(_ context.Context, text string) (*extract.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if err, ok := f.errs[text]; ok {
		return nil, err
	}
	return f.results[text], nil
}

func (f *fakeScheduler) Len() int { return 0 }

func (f *fakeScheduler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testPipeline(source ArticleSource, scheduler Extractor) (*Pipeline, *store.Incidents) {
	cfg := model.DefaultConfig()
	cfg.News.Queries = []string{"test query"}
	incidents := store.NewIncidents(store.NewMemStore(), nil, nil)
	p := New(cfg, source, scheduler, geo.New(), incidents, nil, nil)
	return p, incidents
}

func article(title string, published time.Time) model.Article {
	return model.Article{
		Title:       title,
		Description: "description",
		URL:         "https://example.com/x",
		PublishedAt: published,
		Source:      model.ArticleSource{Name: "Example News"},
	}
}

func strptr(s string) *string { return &s }

func validResult(city string) *extract.Result {
	return &extract.Result{
		AttackedCity: strptr(city),
		Attacker:     strptr("Iran"),
		Details: extract.Details{
			TargetType:   "Residential Area",
			AttackTime:   "2025-06-15",
			AttackStatus: model.StatusSuccessful,
		},
		Casualties: extract.Casualties{
			Dead:    model.KnownCount(2),
			Wounded: model.UnknownCount(),
		},
		WeaponType: "Ballistic Missile",
		IsToday:    model.True(),
		Confidence: 95,
	}
}

func TestPipeline_AcceptsConfirmedAttack(t *testing.T) {
	published := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	src := &fakeSource{articles: []model.Article{article("Missiles hit Tel Aviv", published)}}
	sched := &fakeScheduler{results: map[string]*extract.Result{
		"Missiles hit Tel Aviv description": validResult("Tel Aviv"),
	}}
	p, incidents := testPipeline(src, sched)

	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("RunFetchCycle failed: %v", err)
	}

	id := model.AutoID("Missiles hit Tel Aviv")
	rec, ok := incidents.Get(id)
	if !ok {
		t.Fatal("Expected incident recorded")
	}
	loc := rec.Locations[0]
	if loc.Name != "Tel Aviv" {
		t.Errorf("Unexpected location: %s", loc.Name)
	}
	if loc.Lat == 0 || loc.Lon == 0 {
		t.Error("Expected gazetteer coordinates")
	}
	if loc.Attacker != model.AttackerIran {
		t.Errorf("Expected attacker code %q, got %q", model.AttackerIran, loc.Attacker)
	}
	if loc.Casualties.Dead != model.KnownCount(2) {
		t.Errorf("Unexpected dead count: %+v", loc.Casualties.Dead)
	}
	if !rec.Timestamp.Equal(published) {
		t.Errorf("Unexpected timestamp: %v", rec.Timestamp)
	}
}

func TestPipeline_AcceptancePolicy(t *testing.T) {
	rejectCity := validResult("Tel Aviv")
	rejectCity.AttackedCity = nil

	lowConfidence := validResult("Tel Aviv")
	lowConfidence.Confidence = 80

	noAttacker := validResult("Tel Aviv")
	noAttacker.Attacker = nil

	intercepted := validResult("Tel Aviv")
	intercepted.Details.AttackStatus = model.StatusIntercepted

	unknownPlace := validResult("Gotham City")

	tests := []struct {
		name   string
		result *extract.Result
		want   bool
	}{
		{"confirmed attack", validResult("Tel Aviv"), true},
		{"no city", rejectCity, false},
		{"confidence below threshold", lowConfidence, false},
		{"no attacker", noAttacker, false},
		{"intercepted attack", intercepted, false},
		{"unresolvable city", unknownPlace, false},
	}

	published := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title := "Article about " + tt.name
			src := &fakeSource{articles: []model.Article{article(title, published)}}
			sched := &fakeScheduler{results: map[string]*extract.Result{
				title + " description": tt.result,
			}}
			p, incidents := testPipeline(src, sched)

			if err := p.RunFetchCycle(context.Background()); err != nil {
				t.Fatalf("RunFetchCycle failed: %v", err)
			}
			if got := incidents.Has(model.AutoID(title)); got != tt.want {
				t.Errorf("Expected stored=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestPipeline_AttackerInferredFromTarget(t *testing.T) {
	published := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)

	// Ambiguous attacker name, Iranian target: the attacker must resolve
	// to Israel.
	res := validResult("Natanz")
	res.Attacker = strptr("unidentified forces")

	title := "Explosions at Natanz"
	src := &fakeSource{articles: []model.Article{article(title, published)}}
	sched := &fakeScheduler{results: map[string]*extract.Result{
		title + " description": res,
	}}
	p, incidents := testPipeline(src, sched)

	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("RunFetchCycle failed: %v", err)
	}

	rec, ok := incidents.Get(model.AutoID(title))
	if !ok {
		t.Fatal("Expected incident recorded")
	}
	if rec.Locations[0].Attacker != model.AttackerIsrael {
		t.Errorf("Expected inferred attacker Israel, got %q", rec.Locations[0].Attacker)
	}
}

func TestPipeline_CutoffBoundaryIsExclusive(t *testing.T) {
	cutoff := model.DefaultConfig().News.CutoffDate

	src := &fakeSource{articles: []model.Article{
		article("Exactly at cutoff", cutoff),
		article("Just after cutoff", cutoff.Add(time.Microsecond)),
		article("Before cutoff", cutoff.Add(-time.Hour)),
	}}
	sched := &fakeScheduler{results: map[string]*extract.Result{
		"Just after cutoff description": validResult("Tel Aviv"),
	}}
	p, _ := testPipeline(src, sched)

	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("RunFetchCycle failed: %v", err)
	}

	if got := sched.callCount(); got != 1 {
		t.Errorf("Only the post-cutoff article should reach extraction, got %d calls", got)
	}
}

func TestPipeline_DeduplicatesByTitle(t *testing.T) {
	published := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	src := &fakeSource{articles: []model.Article{
		article("Same Story", published),
		article("  same story ", published),
	}}
	sched := &fakeScheduler{}
	p, _ := testPipeline(src, sched)

	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("RunFetchCycle failed: %v", err)
	}
	if got := sched.callCount(); got != 1 {
		t.Errorf("Case variants of a title should extract once, got %d calls", got)
	}

	// A second cycle must not re-extract either.
	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("second RunFetchCycle failed: %v", err)
	}
	if got := sched.callCount(); got != 1 {
		t.Errorf("Seen articles must not re-extract, got %d calls", got)
	}
}

func TestPipeline_ExtractionFailureDoesNotAbortCycle(t *testing.T) {
	published := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	src := &fakeSource{articles: []model.Article{
		article("Failing article", published),
		article("Working article", published),
	}}
	sched := &fakeScheduler{
		errs: map[string]error{
			"Failing article description": &extract.RequestError{Err: errors.New("boom")},
		},
		results: map[string]*extract.Result{
			"Working article description": validResult("Haifa"),
		},
	}
	p, incidents := testPipeline(src, sched)

	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("RunFetchCycle failed: %v", err)
	}
	if !incidents.Has(model.AutoID("Working article")) {
		t.Error("Later articles should still process after a failure")
	}
}

func TestPipeline_SourceErrorSkipsQuery(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	sched := &fakeScheduler{}
	p, _ := testPipeline(src, sched)

	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Fatalf("Source failures must not abort the cycle: %v", err)
	}
	if sched.callCount() != 0 {
		t.Error("No extraction expected when the source fails")
	}
}

func TestPipeline_RefreshPreservesManual(t *testing.T) {
	ctx := context.Background()
	published := time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC)
	src := &fakeSource{articles: []model.Article{article("Auto story", published)}}
	sched := &fakeScheduler{results: map[string]*extract.Result{
		"Auto story description": validResult("Tel Aviv"),
	}}
	p, incidents := testPipeline(src, sched)

	manual := model.IncidentRecord{
		ID:        model.ManualID(published, "Tehran"),
		Title:     "Manual entry",
		Timestamp: published,
		Locations: []model.LocationFact{{Name: "Tehran", Lat: 35.7, Lon: 51.4}},
	}
	if err := incidents.Upsert(ctx, manual); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if !incidents.Has(manual.ID) {
		t.Error("Manual record should survive refresh")
	}
	if !incidents.Has(model.AutoID("Auto story")) {
		t.Error("Refresh should fetch new incidents")
	}
}

func TestPipeline_RunCyclesOnInterval(t *testing.T) {
	src := &fakeSource{}
	sched := &fakeScheduler{}
	p, _ := testPipeline(src, sched)

	clock := clockwork.NewFakeClock()
	p.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	// The first cycle fires immediately.
	waitFor(t, func() bool { return src.callCount() == 1 })

	// Advancing one update interval fires the next cycle.
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("ticker never registered: %v", err)
	}
	clock.Advance(model.DefaultConfig().News.UpdateInterval)
	waitFor(t, func() bool { return src.callCount() == 2 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestPipeline_ConcurrentCycleIsNoop(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{gate: gate}
	sched := &fakeScheduler{}
	p, _ := testPipeline(src, sched)

	done := make(chan error, 1)
	go func() {
		done <- p.RunFetchCycle(context.Background())
	}()

	// Wait for the first cycle to be mid-query, then trigger again.
	waitFor(t, func() bool { return src.callCount() > 0 })
	if err := p.RunFetchCycle(context.Background()); err != nil {
		t.Errorf("Overlapping trigger should be a silent no-op, got %v", err)
	}
	if got := src.callCount(); got != 1 {
		t.Errorf("Overlapping trigger must not query the source, got %d calls", got)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("RunFetchCycle failed: %v", err)
	}
}
