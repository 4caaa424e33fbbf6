package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCount_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(KnownCount(7))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "7" {
		t.Errorf("expected 7, got %s", data)
	}

	data, err = json.Marshal(UnknownCount())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"No Info"` {
		t.Errorf("expected \"No Info\", got %s", data)
	}
}

func TestCount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  Count
	}{
		{"5", KnownCount(5)},
		{"0", KnownCount(0)},
		{`"12"`, KnownCount(12)},
		{`"No Info"`, UnknownCount()},
		{`"no info"`, UnknownCount()},
		{`"unknown"`, UnknownCount()},
		{"null", UnknownCount()},
		{"-3", UnknownCount()},
	}

	for _, tt := range tests {
		var c Count
		if err := json.Unmarshal([]byte(tt.input), &c); err != nil {
			t.Errorf("unmarshal %s failed: %v", tt.input, err)
			continue
		}
		if c != tt.want {
			t.Errorf("unmarshal %s: expected %+v, got %+v", tt.input, tt.want, c)
		}
	}
}

func TestParseCount(t *testing.T) {
	if got := ParseCount("3"); got != KnownCount(3) {
		t.Errorf("expected known 3, got %+v", got)
	}
	if got := ParseCount(" 10 "); got != KnownCount(10) {
		t.Errorf("expected known 10, got %+v", got)
	}
	for _, input := range []string{"", "No Info", "no info", "many", "-1"} {
		if got := ParseCount(input); got.Known {
			t.Errorf("ParseCount(%q): expected unknown, got %+v", input, got)
		}
	}
}

func TestTriBool_JSON(t *testing.T) {
	data, _ := json.Marshal(True())
	if string(data) != "true" {
		t.Errorf("expected true, got %s", data)
	}
	data, _ = json.Marshal(TriBool{})
	if string(data) != "null" {
		t.Errorf("expected null, got %s", data)
	}

	var b TriBool
	if err := json.Unmarshal([]byte("false"), &b); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !b.Known || b.Value {
		t.Errorf("expected known false, got %+v", b)
	}
	if err := json.Unmarshal([]byte("null"), &b); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if b.Known {
		t.Errorf("expected unknown, got %+v", b)
	}
}

func TestNormalizeAttacker(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Israel", AttackerIsrael},
		{"israel", AttackerIsrael},
		{" IRAN ", AttackerIran},
		{"1", AttackerIsrael},
		{"2", AttackerIran},
		{"USA", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeAttacker(tt.input); got != tt.want {
			t.Errorf("NormalizeAttacker(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestAttackerName(t *testing.T) {
	if AttackerName(AttackerIsrael) != "Israel" {
		t.Error("expected Israel")
	}
	if AttackerName(AttackerIran) != "Iran" {
		t.Error("expected Iran")
	}
	if AttackerName("9") != NoInfo {
		t.Error("expected No Info for unknown code")
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("  Breaking News  ") != "breaking news" {
		t.Error("expected lowercased trimmed fingerprint")
	}
	if Fingerprint("Same Title") != Fingerprint("same title") {
		t.Error("fingerprints of case variants should match")
	}
}

func TestAutoID(t *testing.T) {
	id := AutoID("Israel Strikes Tehran!")
	if id != "israelstrikestehran" {
		t.Errorf("unexpected id %q", id)
	}

	// Case and punctuation variants collapse to the same id.
	if AutoID("ISRAEL strikes, Tehran") != id {
		t.Error("expected variants to share an id")
	}

	long := AutoID("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	if len(long) != 32 {
		t.Errorf("expected 32-char cap, got %d", len(long))
	}
}

func TestManualID(t *testing.T) {
	at := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	id := ManualID(at, "Tel Aviv")
	want := "manual-1749988800000-Tel-Aviv"
	if id != want {
		t.Errorf("expected %s, got %s", want, id)
	}
	if !IsManualID(id) {
		t.Error("manual id should be recognized")
	}
	if IsManualID("israelstrikestehran") {
		t.Error("automated id should not be manual")
	}
}

func TestIncidentRecord_IsManual(t *testing.T) {
	rec := IncidentRecord{ID: "manual-1-Haifa"}
	if !rec.IsManual() {
		t.Error("expected manual")
	}
	rec.ID = "somearticle"
	if rec.IsManual() {
		t.Error("expected automated")
	}
}

func TestLocationFact_HasCoordinates(t *testing.T) {
	if (LocationFact{}).HasCoordinates() {
		t.Error("zero coordinates are the unknown sentinel")
	}
	if !(LocationFact{Lat: 32.0853, Lon: 34.7818}).HasCoordinates() {
		t.Error("real coordinates should report true")
	}
}

func TestIncidentRecord_JSONRoundTrip(t *testing.T) {
	rec := IncidentRecord{
		ID:        "test",
		Title:     "Test incident",
		Timestamp: time.Date(2025, time.June, 15, 8, 30, 0, 0, time.UTC),
		Locations: []LocationFact{{
			Name:     "Tehran",
			Lat:      35.6892,
			Lon:      51.389,
			Attacker: AttackerIsrael,
			Casualties: Casualties{
				Dead:    KnownCount(2),
				Wounded: UnknownCount(),
			},
			IsToday: True(),
		}},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got IncidentRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", got.Timestamp, rec.Timestamp)
	}
	loc := got.Locations[0]
	if loc.Casualties.Dead != KnownCount(2) {
		t.Errorf("dead count mismatch: %+v", loc.Casualties.Dead)
	}
	if loc.Casualties.Wounded.Known {
		t.Errorf("wounded should stay unknown, got %+v", loc.Casualties.Wounded)
	}
}
