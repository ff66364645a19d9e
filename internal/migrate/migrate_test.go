package migrate

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
)

var est = time.FixedZone("EST", -5*60*60)

const legacyDoc = `{
  "substances": [
    {"id": "s1", "name": "Apollo", "theoreticalInitialMass": 50, "totalInitialMass": 60, "finalMass": 10, "createdAt": "2026-01-01T00:00:00Z", "active": false},
    {"id": "s2", "name": "Gramlin", "createdAt": "2026-01-02T08:00:00"}
  ],
  "entries": [
    {"id": "e1", "substanceId": "s1", "person": "t", "initialMass": 50, "finalMass": 49.96, "delta": 0.04, "timestamp": "2026-01-01T12:30:00Z", "notes": "first"},
    {"id": "e2", "substanceId": "s2", "person": "e", "initialMass": 1, "finalMass": 0.94, "timestamp": "2026-01-03T09:00:00"}
  ],
  "metadata": {"version": "1.0", "lastUpdated": "2026-01-03T09:00:00.000Z"}
}`

func mustDecode(t *testing.T, data string) Document {
	t.Helper()
	doc, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc
}

func TestDecode_DetectsVersion(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want Version
	}{
		{"missing metadata", `{"substances": [], "entries": []}`, V1},
		{"missing version", `{"substances": [], "entries": [], "metadata": {}}`, V1},
		{"legacy version", `{"substances": [], "entries": [], "metadata": {"version": "1.0"}}`, V1},
		{"current version", `{"substances": [{"id": "a", "advertisedMass": 2}], "entries": [], "metadata": {"version": "2.0"}}`, V2},
		{"legacy field under current version", `{"substances": [{"id": "a", "theoreticalInitialMass": 2}], "entries": [], "metadata": {"version": "2.0"}}`, V1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustDecode(t, tc.doc)
			if doc.Version != tc.want {
				t.Errorf("Version = %v, want %v", doc.Version, tc.want)
			}
			if (doc.V1 != nil) != (tc.want == V1) || (doc.V2 != nil) != (tc.want == V2) {
				t.Errorf("variant mismatch: V1=%v V2=%v", doc.V1 != nil, doc.V2 != nil)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{"", "{", "[]", `"tracker"`, `{"substances": 3}`} {
		if _, err := Decode([]byte(in)); !errors.Is(err, model.ErrParse) {
			t.Errorf("Decode(%q) error = %v, want ErrParse", in, err)
		}
	}
}

func TestDecode_ArrayPresence(t *testing.T) {
	doc := mustDecode(t, `{"substances": [], "metadata": {"version": "2.0"}}`)
	if !doc.HasSubstances {
		t.Error("HasSubstances = false, want true")
	}
	if doc.HasEntries {
		t.Error("HasEntries = true, want false")
	}
}

func TestMigrate_RenamesLegacyFields(t *testing.T) {
	ds, rep := Migrate(mustDecode(t, legacyDoc), est)

	if !rep.Renamed || rep.From != V1 {
		t.Fatalf("report = %+v, want renamed from v1", rep)
	}
	if ds.Metadata.Version != model.CurrentVersion {
		t.Errorf("version = %q, want %q", ds.Metadata.Version, model.CurrentVersion)
	}

	s := ds.Substances[0]
	if s.AdvertisedMass != 50 {
		t.Errorf("AdvertisedMass = %v, want 50", s.AdvertisedMass)
	}
	if s.GrossInitialMass == nil || *s.GrossInitialMass != 60 {
		t.Errorf("GrossInitialMass = %v, want 60", s.GrossInitialMass)
	}
	if s.GrossFinalMass == nil || *s.GrossFinalMass != 10 {
		t.Errorf("GrossFinalMass = %v, want 10", s.GrossFinalMass)
	}
	if s.Active {
		t.Error("Active = true, want false carried over")
	}

	def := ds.Substances[1]
	if def.AdvertisedMass != DefaultAdvertisedMass {
		t.Errorf("default AdvertisedMass = %v, want %v", def.AdvertisedMass, DefaultAdvertisedMass)
	}
	if def.GrossInitialMass != nil || def.GrossFinalMass != nil {
		t.Error("optional masses should default to null")
	}
	if !def.Active {
		t.Error("Active should default to true")
	}

	if ds.Entries[0].Notes != "first" {
		t.Errorf("Notes = %q, want carried over", ds.Entries[0].Notes)
	}
	if ds.Entries[1].Delta != 0.06 {
		t.Errorf("derived Delta = %v, want 0.06", ds.Entries[1].Delta)
	}
}

func TestMigrate_DropsRawEntryMasses(t *testing.T) {
	ds, _ := Migrate(mustDecode(t, legacyDoc), est)
	data, err := json.Marshal(ds.Entries[0])
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"initialMass", "finalMass"} {
		if _, ok := fields[k]; ok {
			t.Errorf("entry still carries %q", k)
		}
	}
}

func TestMigrate_NormalizesTimestamps(t *testing.T) {
	ds, rep := Migrate(mustDecode(t, legacyDoc), est)

	if got := ds.Entries[0].Timestamp; got != "2026-01-01T07:30:00" {
		t.Errorf("entry timestamp = %q, want 2026-01-01T07:30:00", got)
	}
	if got := ds.Substances[0].CreatedAt; got != "2025-12-31T19:00:00" {
		t.Errorf("createdAt = %q, want 2025-12-31T19:00:00", got)
	}
	if got := ds.Entries[1].Timestamp; got != "2026-01-03T09:00:00" {
		t.Errorf("naive timestamp changed to %q", got)
	}
	if rep.TimestampsNormalized != 2 {
		t.Errorf("TimestampsNormalized = %d, want 2", rep.TimestampsNormalized)
	}
}

func TestNormalizeTimestamps_Offsets(t *testing.T) {
	ds := model.Dataset{Entries: []model.Entry{
		{ID: "a", Timestamp: "2026-01-01T12:30:00+02:00"},
		{ID: "b", Timestamp: "2026-01-01T12:30:00.123Z"},
		{ID: "c", Timestamp: "2026-01-01T12:30:00-0300"},
	}}
	out, n := NormalizeTimestamps(ds, time.UTC)
	want := []string{"2026-01-01T10:30:00", "2026-01-01T12:30:00", "2026-01-01T15:30:00"}
	for i, w := range want {
		if got := out.Entries[i].Timestamp; got != w {
			t.Errorf("entry %d = %q, want %q", i, got, w)
		}
		if model.IsZoned(out.Entries[i].Timestamp) {
			t.Errorf("entry %d still zoned", i)
		}
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
	if ds.Entries[0].Timestamp != "2026-01-01T12:30:00+02:00" {
		t.Error("input dataset was mutated")
	}
}

func TestMigrate_CurrentTimestampOnlyTrigger(t *testing.T) {
	doc := mustDecode(t, `{"substances": [], "entries": [{"id": "a", "substanceId": "s", "person": "t", "delta": 0.1, "timestamp": "2026-03-01T10:00:00Z"}], "metadata": {"version": "2.0"}}`)
	ds, rep := Migrate(doc, time.UTC)
	if rep.Renamed {
		t.Error("current document should not be renamed")
	}
	if !rep.Changed() || ds.Entries[0].Timestamp != "2026-03-01T10:00:00" {
		t.Errorf("timestamp = %q, changed = %v", ds.Entries[0].Timestamp, rep.Changed())
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	inputs := []string{
		legacyDoc,
		`{"substances": [], "entries": []}`,
		`{"substances": [{"id": "x", "name": "X", "advertisedMass": 3, "grossInitialMass": null, "grossFinalMass": null, "active": true, "createdAt": "2026-02-01T10:00:00"}], "entries": [], "metadata": {"version": "2.0", "lastUpdated": "2026-02-01T10:00:00Z"}}`,
	}
	for _, in := range inputs {
		once, _ := Migrate(mustDecode(t, in), est)

		data, err := json.Marshal(once)
		if err != nil {
			t.Fatal(err)
		}
		twice, rep := Migrate(mustDecode(t, string(data)), est)

		if !reflect.DeepEqual(once, twice) {
			t.Errorf("migrate not idempotent:\n once: %+v\ntwice: %+v", once, twice)
		}
		if rep.Changed() {
			t.Errorf("second pass reported changes: %+v", rep)
		}
	}
}

func TestMigrate_PreservesCounts(t *testing.T) {
	doc := mustDecode(t, legacyDoc)
	ds, _ := Migrate(doc, est)
	if len(ds.Substances) != len(doc.V1.Substances) {
		t.Errorf("substances = %d, want %d", len(ds.Substances), len(doc.V1.Substances))
	}
	if len(ds.Entries) != len(doc.V1.Entries) {
		t.Errorf("entries = %d, want %d", len(ds.Entries), len(doc.V1.Entries))
	}
}

func TestMigrate_EmptyDataset(t *testing.T) {
	ds, _ := Migrate(mustDecode(t, `{}`), est)
	if ds.Metadata.Version != model.CurrentVersion {
		t.Errorf("version = %q, want %q", ds.Metadata.Version, model.CurrentVersion)
	}
	if ds.Substances == nil || ds.Entries == nil {
		t.Error("arrays should be empty, not nil")
	}
}

func TestMigrate_KeepsCurrentNamesInLegacyRoute(t *testing.T) {
	doc := mustDecode(t, `{"substances": [{"id": "a", "name": "A", "advertisedMass": 7, "grossInitialMass": 9}], "entries": []}`)
	ds, _ := Migrate(doc, est)
	s := ds.Substances[0]
	if s.AdvertisedMass != 7 || s.GrossInitialMass == nil || *s.GrossInitialMass != 9 {
		t.Errorf("substance = %+v, want advertised 7, gross initial 9", s)
	}
}
