package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all stashtrack configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Seed    SeedConfig    `toml:"seed"`
	Backup  BackupConfig  `toml:"backup"`
	Server  ServerConfig  `toml:"server"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir       string `toml:"data_dir,omitempty"`
	DefaultPerson string `toml:"default_person"`
	Timezone      string `toml:"timezone,omitempty"`
}

// SeedConfig lists the substances created on first run.
type SeedConfig struct {
	Substances []SeedSubstance `toml:"substances"`
}

// SeedSubstance is one first-run substance.
type SeedSubstance struct {
	Name           string  `toml:"name"`
	AdvertisedMass float64 `toml:"advertised_mass"`
}

// BackupConfig holds S3 settings for off-device export backups.
type BackupConfig struct {
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3PathStyle bool   `toml:"s3_path_style,omitempty"`
}

// Enabled reports whether a bucket is configured.
func (b BackupConfig) Enabled() bool {
	return b.S3Bucket != ""
}

// ServerConfig holds local HTTP API settings.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	EventsBuffer int    `toml:"events_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultPerson: "t",
		},
		Seed: SeedConfig{
			Substances: []SeedSubstance{
				{Name: "Apollo", AdvertisedMass: 1},
				{Name: "Gramlin", AdvertisedMass: 1},
			},
		},
		Backup: BackupConfig{
			S3Prefix: "stashtrack/",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8787",
			EventsBuffer: 200,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stashtrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stashtrack")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't
// exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i, s := range cfg.Seed.Substances {
		if s.Name == "" || s.AdvertisedMass <= 0 {
			return cfg, fmt.Errorf("parsing config: seed substance %d needs a name and a positive advertised_mass", i+1)
		}
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's own config file
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DataDir returns the data directory: STASHTRACK_DATA_DIR, then the config
// value, then the XDG data home.
func DataDir(cfg Config) string {
	if dir := os.Getenv("STASHTRACK_DATA_DIR"); dir != "" {
		return dir
	}
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "stashtrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "stashtrack")
}

// DBPath returns the tracker database inside dataDir.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "tracker.db")
}

// Location resolves the configured timezone. An empty name means the
// system's local zone.
func Location(cfg Config) (*time.Location, error) {
	if cfg.General.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.General.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.General.Timezone, err)
	}
	return loc, nil
}
