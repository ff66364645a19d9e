package codec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
)

func sampleDataset() model.Dataset {
	return model.Dataset{
		Substances: []model.Substance{
			{ID: "s1", Name: "Apollo", AdvertisedMass: 1, GrossInitialMass: model.Float(1.4), Active: true, CreatedAt: "2026-01-01T00:00:00"},
			{ID: "s2", Name: `Say "hi"`, AdvertisedMass: 2, GrossFinalMass: model.Float(0.3), Active: false, CreatedAt: "2026-01-02T00:00:00"},
		},
		Entries: []model.Entry{
			{ID: "e2", SubstanceID: "s2", Person: "e", Delta: 0.25, Timestamp: "2026-01-03T21:15:09"},
			{ID: "e1", SubstanceID: "s1", Person: "t", Delta: 0.04, Timestamp: "2026-01-02T08:00:00", Notes: "first"},
			{ID: "e0", SubstanceID: "gone", Person: "t", Delta: 0.1, Timestamp: "2026-01-01T08:00:00"},
		},
		Metadata: model.Metadata{Version: model.CurrentVersion, LastUpdated: "2026-01-03T21:15:10.000Z"},
	}
}

func TestExportJSON_RoundTrip(t *testing.T) {
	ds := sampleDataset()
	data, err := ExportJSON(ds)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  \"substances\": [")) {
		t.Errorf("export is not two-space indented:\n%s", data)
	}

	got, err := ImportJSON(bytes.NewReader(data), time.UTC)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if !reflect.DeepEqual(got, ds) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, ds)
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, sampleDataset()); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"Date,Time,Substance,Person,Delta (g)",
		`"2026-01-03","21:15:09","Say ""hi""","e","0.25"`,
		`"2026-01-02","08:00:00","Apollo","t","0.04"`,
		`"2026-01-01","08:00:00","Unknown","t","0.1"`,
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("csv lines:\n%s\nwant:\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestExportCSV_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, model.Dataset{}); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if got := buf.String(); got != "Date,Time,Substance,Person,Delta (g)\n" {
		t.Errorf("ExportCSV = %q, want header only", got)
	}
}

func TestImportJSON_LegacyDocument(t *testing.T) {
	in := `{
		"substances": [{"id": "s", "name": "Old", "theoreticalInitialMass": 50, "totalInitialMass": 60, "finalMass": 10, "active": false}],
		"entries": [{"id": "e", "substanceId": "s", "person": "t", "initialMass": 60, "finalMass": 59.5, "delta": 0.5, "timestamp": "2026-01-01T10:00:00"}],
		"metadata": {"version": "1.0"}
	}`
	ds, err := ImportJSON(strings.NewReader(in), time.UTC)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}

	s := ds.Substances[0]
	if s.AdvertisedMass != 50 || s.GrossInitialMass == nil || *s.GrossInitialMass != 60 || s.GrossFinalMass == nil || *s.GrossFinalMass != 10 {
		t.Errorf("substance = %+v, want 50/60/10", s)
	}
	if ds.Metadata.Version != "2.0" {
		t.Errorf("version = %q, want 2.0", ds.Metadata.Version)
	}
	if len(ds.Entries) != 1 || ds.Entries[0].Delta != 0.5 {
		t.Errorf("entries = %+v", ds.Entries)
	}
}

func TestImportJSON_NormalizesZonedTimestamps(t *testing.T) {
	est, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	in := `{"substances": [], "entries": [{"id": "e", "substanceId": "s", "person": "t", "delta": 0.1, "timestamp": "2026-01-01T12:30:00.000Z"}], "metadata": {"version": "2.0"}}`
	ds, err := ImportJSON(strings.NewReader(in), est)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got := ds.Entries[0].Timestamp; got != "2026-01-01T07:30:00" {
		t.Errorf("timestamp = %q, want 2026-01-01T07:30:00", got)
	}
}

func TestImportJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"not json", "hello", model.ErrParse},
		{"truncated", `{"substances": [`, model.ErrParse},
		{"array root", `[]`, model.ErrParse},
		{"no entries", `{"substances": [], "metadata": {"version": "2.0"}}`, ErrInvalidBackup},
		{"no substances", `{"entries": [], "metadata": {"version": "2.0"}}`, ErrInvalidBackup},
		{"null entries", `{"substances": [], "entries": null}`, ErrInvalidBackup},
		{"empty object", `{}`, ErrInvalidBackup},
		{"empty substance name", `{"substances": [{"id": "s", "name": " ", "advertisedMass": 1, "active": true}], "entries": []}`, model.ErrInvalidInput},
		{"negative advertised mass", `{"substances": [{"id": "s", "name": "A", "advertisedMass": -5, "active": true}], "entries": []}`, model.ErrInvalidInput},
		{"final above initial", `{"substances": [{"id": "s", "name": "A", "advertisedMass": 1, "grossInitialMass": 1, "grossFinalMass": 9}], "entries": []}`, model.ErrInvalidInput},
		{"empty entry person", `{"substances": [], "entries": [{"id": "e", "substanceId": "s", "person": "", "delta": 0.1, "timestamp": "2026-01-01T10:00:00"}]}`, model.ErrInvalidInput},
		{"negative delta", `{"substances": [], "entries": [{"id": "e", "substanceId": "s", "person": "t", "delta": -3, "timestamp": "2026-01-01T10:00:00"}]}`, model.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportJSON(strings.NewReader(tt.in), time.UTC)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImportJSON_ReportsInvalidField(t *testing.T) {
	in := `{"substances": [{"id": "s", "name": "", "advertisedMass": -5, "grossInitialMass": 1, "grossFinalMass": 9}],
		"entries": [{"id": "e", "substanceId": "s", "person": "", "delta": -3, "timestamp": "2026-01-01T10:00:00"}],
		"metadata": {"version": "2.0"}}`
	ds, err := ImportJSON(strings.NewReader(in), time.UTC)
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Field != "name" {
		t.Errorf("field = %q, want name", ve.Field)
	}
	if len(ds.Substances) != 0 || len(ds.Entries) != 0 {
		t.Errorf("rejected import returned records: %+v", ds)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)
	if got := Filename(KindJSON, now); got != "tracker-2026-03-04.json" {
		t.Errorf("Filename(json) = %q", got)
	}
	if got := Filename(KindCSV, now); got != "tracker-2026-03-04.csv" {
		t.Errorf("Filename(csv) = %q", got)
	}
}
