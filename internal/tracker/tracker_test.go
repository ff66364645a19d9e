package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/stashtrack/internal/clock"
	"github.com/theirongolddev/stashtrack/internal/codec"
	"github.com/theirongolddev/stashtrack/internal/model"
	"github.com/theirongolddev/stashtrack/internal/store"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// movableClock lets a test record entries on different days.
type movableClock struct{ now time.Time }

func (c *movableClock) Now() time.Time { return c.now }

func newTracker(t *testing.T, clk clock.Clock) *Tracker {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tracker.db"), store.Options{
		Clock:    clk,
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(st, Options{Clock: clk, IDs: &seqIDs{}, Location: time.UTC})
}

func TestAddSubstance(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))

	s, err := tr.AddSubstance("Nova", 3.5, model.Float(4.2))
	if err != nil {
		t.Fatalf("AddSubstance: %v", err)
	}
	if s.ID != "id-1" || !s.Active || s.CreatedAt != "2026-03-04T10:00:00" {
		t.Errorf("substance = %+v", s)
	}

	ds, err := tr.LoadDataset()
	if err != nil {
		t.Fatal(err)
	}
	if n := len(ds.Substances); n != len(store.DefaultSeedSubstances)+1 {
		t.Errorf("substances = %d, want seed plus one", n)
	}
}

func TestAddSubstance_Invalid(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))

	if _, err := tr.AddSubstance("", 1, nil); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("empty name err = %v", err)
	}
	if _, err := tr.AddSubstance("X", 0, nil); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero mass err = %v", err)
	}
	ds, _ := tr.LoadDataset()
	if len(ds.Substances) != len(store.DefaultSeedSubstances) {
		t.Errorf("rejected input changed the dataset: %d substances", len(ds.Substances))
	}
}

func TestAddEntry_PrependsNewest(t *testing.T) {
	clk := &movableClock{now: fixedNow}
	tr := newTracker(t, clk)

	first, err := tr.AddEntry("substance-apollo", "t", 0.05, "")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	clk.now = fixedNow.Add(time.Hour)
	second, err := tr.AddEntry("substance-apollo", "e", 0.031, "<ok>")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if second.Delta != 0.03 || second.Notes != "&lt;ok&gt;" || second.Timestamp != "2026-03-04T11:00:00" {
		t.Errorf("entry = %+v", second)
	}

	ds, _ := tr.LoadDataset()
	if len(ds.Entries) != 2 || ds.Entries[0].ID != second.ID || ds.Entries[1].ID != first.ID {
		t.Errorf("entries not newest first: %+v", ds.Entries)
	}
}

func TestAddEntry_Rejects(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))

	if _, err := tr.AddEntry("missing", "t", 0.1, ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown substance err = %v", err)
	}
	if _, err := tr.AddEntry("substance-apollo", "t", -0.1, ""); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative delta err = %v", err)
	}
	if _, err := tr.DeactivateSubstance("substance-apollo", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddEntry("substance-apollo", "t", 0.1, ""); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("inactive substance err = %v", err)
	}
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	e, err := tr.AddEntry("substance-apollo", "t", 0.1, "")
	if err != nil {
		t.Fatal(err)
	}

	got, err := tr.UpdateEntry(e.ID, 0.256)
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if got.Delta != 0.26 {
		t.Errorf("Delta = %v, want 0.26", got.Delta)
	}
	if _, err := tr.UpdateEntry(e.ID, -1); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative update err = %v", err)
	}
	if _, err := tr.UpdateEntry("nope", 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing update err = %v", err)
	}

	if err := tr.DeleteEntry(e.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := tr.DeleteEntry(e.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestFinishAndReactivate(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	s, err := tr.AddSubstance("Nova", 1, model.Float(1.5))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tr.DeactivateSubstance(s.ID, model.Float(1.6)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("final above initial err = %v", err)
	}
	done, err := tr.DeactivateSubstance(s.ID, model.Float(0.4))
	if err != nil {
		t.Fatalf("DeactivateSubstance: %v", err)
	}
	if done.Active || done.GrossFinalMass == nil || *done.GrossFinalMass != 0.4 {
		t.Errorf("finished = %+v", done)
	}

	back, err := tr.ReactivateSubstance(s.ID)
	if err != nil {
		t.Fatalf("ReactivateSubstance: %v", err)
	}
	if !back.Active || back.GrossFinalMass != nil {
		t.Errorf("reactivated = %+v", back)
	}
}

func TestUpdateSubstance(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	name := "Apollo XL"
	s, err := tr.UpdateSubstance("substance-apollo", SubstancePatch{Name: &name, AdvertisedMass: model.Float(3.5)})
	if err != nil {
		t.Fatalf("UpdateSubstance: %v", err)
	}
	if s.Name != name || s.AdvertisedMass != 3.5 {
		t.Errorf("updated = %+v", s)
	}
	if _, err := tr.UpdateSubstance("substance-apollo", SubstancePatch{AdvertisedMass: model.Float(-1)}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative mass err = %v", err)
	}
}

func TestUpdateSubstance_NameRules(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))

	padded := "  Apollo Mk2 "
	s, err := tr.UpdateSubstance("substance-apollo", SubstancePatch{Name: &padded})
	if err != nil {
		t.Fatalf("UpdateSubstance: %v", err)
	}
	if s.Name != "Apollo Mk2" {
		t.Errorf("name = %q, want trimmed", s.Name)
	}

	long := strings.Repeat("x", 101)
	_, err = tr.UpdateSubstance("substance-apollo", SubstancePatch{Name: &long})
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Errorf("long name err = %v, want ValidationError on name", err)
	}

	blank := "   "
	if _, err := tr.UpdateSubstance("substance-apollo", SubstancePatch{Name: &blank}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("blank name err = %v", err)
	}

	ds, _ := tr.LoadDataset()
	if got := ds.SubstanceName("substance-apollo"); got != "Apollo Mk2" {
		t.Errorf("stored name = %q after rejected edits", got)
	}
}

func TestDeleteSubstance_KeepsEntries(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	if _, err := tr.AddEntry("substance-gramlin", "t", 0.2, ""); err != nil {
		t.Fatal(err)
	}
	if err := tr.DeleteSubstance("substance-gramlin"); err != nil {
		t.Fatalf("DeleteSubstance: %v", err)
	}

	ds, _ := tr.LoadDataset()
	if len(ds.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(ds.Entries))
	}
	if name := ds.SubstanceName(ds.Entries[0].SubstanceID); name != model.UnknownSubstance {
		t.Errorf("name = %q, want Unknown", name)
	}
}

func TestStatsDelegation(t *testing.T) {
	clk := &movableClock{}
	tr := newTracker(t, clk)
	for i, d := range []float64{0.04, 0.06, 0.03, 0.04} {
		clk.now = time.Date(2026, 1, 1+i, 10, 0, 0, 0, time.UTC)
		if _, err := tr.AddEntry("substance-apollo", "t", d, ""); err != nil {
			t.Fatal(err)
		}
	}

	remaining, err := tr.Remaining("substance-apollo")
	if err != nil || remaining != 0.83 {
		t.Errorf("Remaining = %v, %v; want 0.83", remaining, err)
	}
	rate, _ := tr.UsageRate("substance-apollo")
	if rate != 0.057 {
		t.Errorf("UsageRate = %v, want 0.057", rate)
	}

	report, err := tr.SubstanceReport("substance-apollo")
	if err != nil {
		t.Fatalf("SubstanceReport: %v", err)
	}
	if report.Depletion.DaysRemaining == nil || *report.Depletion.DaysRemaining != 15 {
		t.Errorf("depletion = %+v, want 15 days", report.Depletion)
	}
	if report.Summary.TotalEntries != 4 {
		t.Errorf("summary = %+v", report.Summary)
	}

	if _, err := tr.Remaining("missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing substance err = %v", err)
	}

	people, _ := tr.People()
	if len(people) != 1 || people[0] != "t" {
		t.Errorf("People = %v", people)
	}
	pr, err := tr.PersonReport("t", false)
	if err != nil {
		t.Fatalf("PersonReport: %v", err)
	}
	if pr.Overall.TotalSessions != 4 || len(pr.DayOfWeek) != 7 {
		t.Errorf("person report = %+v", pr.Overall)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	if _, err := tr.AddEntry("substance-apollo", "t", 0.2, "note"); err != nil {
		t.Fatal(err)
	}
	before, _ := tr.LoadDataset()

	data, err := tr.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if err := tr.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if ds, _ := tr.LoadDataset(); len(ds.Entries) != 0 {
		t.Fatalf("entries after clear = %d", len(ds.Entries))
	}

	after, err := tr.ImportJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(after.Entries) != 1 || after.Entries[0] != before.Entries[0] {
		t.Errorf("imported entries = %+v, want %+v", after.Entries, before.Entries)
	}

	var buf bytes.Buffer
	if err := tr.ExportCSV(&buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !strings.Contains(buf.String(), `"Apollo","t","0.2"`) {
		t.Errorf("csv = %s", buf.String())
	}
}

func TestImportJSON_RejectLeavesStore(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	if _, err := tr.AddEntry("substance-apollo", "t", 0.2, ""); err != nil {
		t.Fatal(err)
	}

	_, err := tr.ImportJSON(strings.NewReader(`{"substances": []}`))
	if !errors.Is(err, codec.ErrInvalidBackup) {
		t.Fatalf("err = %v, want ErrInvalidBackup", err)
	}
	ds, _ := tr.LoadDataset()
	if len(ds.Entries) != 1 {
		t.Errorf("entries = %d, want the original 1", len(ds.Entries))
	}
}

func TestImportJSON_InvalidRecordLeavesStore(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	if _, err := tr.AddEntry("substance-apollo", "t", 0.2, ""); err != nil {
		t.Fatal(err)
	}

	in := `{"substances": [{"id": "s", "name": "", "advertisedMass": -5}],
		"entries": [{"id": "e", "substanceId": "s", "person": "t", "delta": -3, "timestamp": "2026-01-01T10:00:00"}],
		"metadata": {"version": "2.0"}}`
	if _, err := tr.ImportJSON(strings.NewReader(in)); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	ds, err := tr.LoadDataset()
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Entries) != 1 || ds.Entries[0].Delta != 0.2 {
		t.Errorf("entries = %+v, want the original entry", ds.Entries)
	}
	if ds.FindSubstance("s") >= 0 {
		t.Error("invalid substance was stored")
	}
}

func TestExportFilename(t *testing.T) {
	tr := newTracker(t, clock.Fixed(fixedNow))
	if got := tr.ExportFilename(codec.KindCSV); got != "tracker-2026-03-04.csv" {
		t.Errorf("ExportFilename = %q", got)
	}
}
