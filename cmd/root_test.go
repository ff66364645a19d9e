package cmd

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/theirongolddev/stashtrack/internal/model"
)

func testDataset() model.Dataset {
	return model.Dataset{
		Substances: []model.Substance{
			{ID: "3f2a9c10-0000-4000-8000-000000000001", Name: "Apollo", AdvertisedMass: 1, Active: true},
			{ID: "3f2b1d22-0000-4000-8000-000000000002", Name: "Gramlin", AdvertisedMass: 1, Active: true},
			{ID: "substance-apollo", Name: "Old Apollo", AdvertisedMass: 1},
		},
		Entries: []model.Entry{
			{ID: "aa11-entry", SubstanceID: "substance-apollo", Person: "t", Delta: 0.1},
			{ID: "aa22-entry", SubstanceID: "substance-apollo", Person: "t", Delta: 0.2},
			{ID: "bb33-entry", SubstanceID: "substance-apollo", Person: "m", Delta: 0.3},
		},
	}
}

func TestResolveSubstance(t *testing.T) {
	ds := testDataset()

	tests := []struct {
		ref    string
		wantID string
	}{
		{"substance-apollo", "substance-apollo"},
		{"gramlin", "3f2b1d22-0000-4000-8000-000000000002"},
		{"APOLLO", "3f2a9c10-0000-4000-8000-000000000001"},
		{"3f2a", "3f2a9c10-0000-4000-8000-000000000001"},
		{"  3f2b1d22 ", "3f2b1d22-0000-4000-8000-000000000002"},
	}
	for _, tt := range tests {
		got, err := resolveSubstance(ds, tt.ref)
		if err != nil {
			t.Errorf("resolveSubstance(%q) error: %v", tt.ref, err)
			continue
		}
		if got.ID != tt.wantID {
			t.Errorf("resolveSubstance(%q) = %s, want %s", tt.ref, got.ID, tt.wantID)
		}
	}
}

func TestResolveSubstanceRejects(t *testing.T) {
	ds := testDataset()

	if _, err := resolveSubstance(ds, "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown ref error = %v, want ErrNotFound", err)
	}
	if _, err := resolveSubstance(ds, "3f2"); err == nil {
		t.Error("ambiguous prefix should be rejected")
	}
	if _, err := resolveSubstance(ds, ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("empty ref error = %v, want ErrNotFound", err)
	}
}

func TestResolveEntry(t *testing.T) {
	ds := testDataset()

	got, err := resolveEntry(ds, "bb")
	if err != nil {
		t.Fatalf("resolveEntry: %v", err)
	}
	if got.ID != "bb33-entry" {
		t.Errorf("resolveEntry(bb) = %s, want bb33-entry", got.ID)
	}

	if _, err := resolveEntry(ds, "aa"); err == nil {
		t.Error("ambiguous entry prefix should be rejected")
	}
	if _, err := resolveEntry(ds, "zz"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown entry error = %v, want ErrNotFound", err)
	}
}

func TestOptionalMass(t *testing.T) {
	got, err := optionalMass("grossFinalMass", "")
	if err != nil || got != nil {
		t.Errorf("optionalMass(\"\") = %v, %v; want nil, nil", got, err)
	}

	got, err = optionalMass("grossFinalMass", " 1.25 ")
	if err != nil || got == nil || *got != 1.25 {
		t.Errorf("optionalMass(1.25) = %v, %v", got, err)
	}

	_, err = optionalMass("grossFinalMass", "-1")
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "grossFinalMass" {
		t.Errorf("optionalMass(-1) error = %v, want ValidationError on grossFinalMass", err)
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"serve", "--detach", "--addr", "127.0.0.1:9000", "--detach=true"})
	want := []string{"serve", "--addr", "127.0.0.1:9000"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filterDetachArg = %v, want %v", got, want)
	}
}

func TestPIDAndStateFiles(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "stashtrack.pid")

	if _, err := readPID(pidFile); err == nil {
		t.Error("readPID on missing file should fail")
	}
	if err := ensureServerNotRunning(pidFile); err != nil {
		t.Errorf("ensureServerNotRunning with no pid file: %v", err)
	}

	if err := writePID(pidFile, 4242); err != nil {
		t.Fatalf("writePID: %v", err)
	}
	pid, err := readPID(pidFile)
	if err != nil || pid != 4242 {
		t.Errorf("readPID = %d, %v; want 4242", pid, err)
	}

	st := serveRuntimeState{PID: 4242, Addr: "127.0.0.1:8787", DataDir: dir}
	if err := writeState(statePath(pidFile), st); err != nil {
		t.Fatalf("writeState: %v", err)
	}
	back, err := readState(statePath(pidFile))
	if err != nil {
		t.Fatalf("readState: %v", err)
	}
	if back.Addr != st.Addr || back.PID != st.PID || back.DataDir != st.DataDir {
		t.Errorf("readState = %+v, want %+v", back, st)
	}
}
