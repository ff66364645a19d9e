package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFrom_OverridesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[general]
default_person = "e"
timezone = "UTC"

[[seed.substances]]
name = "Nova Blend"
advertised_mass = 3.5

[backup]
s3_bucket = "stash-backups"
s3_path_style = true

[server]
addr = "127.0.0.1:9999"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.DefaultPerson != "e" || cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("general/server = %+v / %+v", cfg.General, cfg.Server)
	}
	if cfg.Server.EventsBuffer != 200 {
		t.Errorf("EventsBuffer = %d, want default 200", cfg.Server.EventsBuffer)
	}
	if !cfg.Backup.Enabled() || !cfg.Backup.S3PathStyle || cfg.Backup.S3Prefix != "stashtrack/" {
		t.Errorf("backup = %+v", cfg.Backup)
	}
	if len(cfg.Seed.Substances) != 1 || cfg.Seed.Substances[0].AdvertisedMass != 3.5 {
		t.Errorf("seed = %+v", cfg.Seed.Substances)
	}
}

func TestLoadFrom_RejectsBadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[[seed.substances]]\nname = \"Zero\"\nadvertised_mass = 0\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "advertised_mass") {
		t.Errorf("err = %v, want seed validation error", err)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Timezone = "America/New_York"
	cfg.Backup.S3Bucket = "b"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigPath(); got != filepath.Join("/tmp/xdg", "stashtrack", "config.toml") {
		t.Errorf("ConfigPath = %q", got)
	}
}

func TestDataDir_Precedence(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("STASHTRACK_DATA_DIR", "")

	if got := DataDir(cfg); got != filepath.Join("/tmp/data", "stashtrack") {
		t.Errorf("DataDir = %q", got)
	}
	cfg.General.DataDir = "/srv/stash"
	if got := DataDir(cfg); got != "/srv/stash" {
		t.Errorf("DataDir = %q, want config value", got)
	}
	t.Setenv("STASHTRACK_DATA_DIR", "/env/stash")
	if got := DataDir(cfg); got != "/env/stash" {
		t.Errorf("DataDir = %q, want env value", got)
	}
}

func TestLocation(t *testing.T) {
	loc, err := Location(Config{})
	if err != nil || loc != time.Local {
		t.Errorf("Location(empty) = %v, %v", loc, err)
	}
	cfg := Config{General: GeneralConfig{Timezone: "UTC"}}
	if loc, err := Location(cfg); err != nil || loc.String() != "UTC" {
		t.Errorf("Location(UTC) = %v, %v", loc, err)
	}
	cfg.General.Timezone = "Mars/Olympus"
	if _, err := Location(cfg); err == nil {
		t.Error("Location accepted an unknown zone")
	}
}

func TestSeedSubstances(t *testing.T) {
	cfg := DefaultConfig()
	got := SeedSubstances(cfg)
	if len(got) != 2 || got[0].ID != "substance-apollo" || got[1].ID != "substance-gramlin" {
		t.Errorf("default seeds = %+v", got)
	}

	cfg.Seed.Substances = []SeedSubstance{{Name: "Nova Blend!", AdvertisedMass: 2}, {Name: "nova blend", AdvertisedMass: 1}}
	got = SeedSubstances(cfg)
	if got[0].ID != "substance-nova-blend" || got[1].ID != "substance-nova-blend-2" {
		t.Errorf("custom seed ids = %s, %s", got[0].ID, got[1].ID)
	}
}
