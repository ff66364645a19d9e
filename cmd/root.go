// Package cmd implements the stashtrack CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/stashtrack/internal/config"
	"github.com/theirongolddev/stashtrack/internal/model"
	"github.com/theirongolddev/stashtrack/internal/store"
	"github.com/theirongolddev/stashtrack/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	flagDataDir string
	flagPerson  string
	flagQuiet   bool
	flagYes     bool
)

var rootCmd = &cobra.Command{
	Use:   "stashtrack",
	Short: "Personal consumption tracker",
	Long:  "Track depleting supplies, log usage per person, and project when each one runs out.",
	RunE:  runDashboard,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Tracker data directory (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagPerson, "person", "p", "", "Person to log or report for (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Skip confirmation prompts")
}

// session is the shared state every command opens.
type session struct {
	cfg     config.Config
	dataDir string
	store   *store.Store
	tracker *tracker.Tracker
}

func (s *session) Close() {
	_ = s.store.Close()
}

// openTracker is the shared loading path used by all commands.
func openTracker() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := config.Location(cfg)
	if err != nil {
		return nil, err
	}

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = config.DataDir(cfg)
	}

	seed := config.SeedSubstances(cfg)
	st, err := store.Open(config.DBPath(dataDir), store.Options{
		Location: loc,
		Seed:     func() model.Dataset { return store.SeedFrom(seed) },
	})
	if err != nil {
		return nil, err
	}

	tr := tracker.New(st, tracker.Options{Location: loc})
	return &session{cfg: cfg, dataDir: dataDir, store: st, tracker: tr}, nil
}

// person returns the --person flag or the configured default.
func (s *session) person() string {
	if flagPerson != "" {
		return flagPerson
	}
	return s.cfg.General.DefaultPerson
}

func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// resolveSubstance finds a substance by full id, short id prefix or
// case-insensitive name. Ambiguous references are rejected.
func resolveSubstance(ds model.Dataset, ref string) (model.Substance, error) {
	ref = strings.TrimSpace(ref)
	if i := ds.FindSubstance(ref); i >= 0 {
		return ds.Substances[i], nil
	}

	var matches []model.Substance
	for _, s := range ds.Substances {
		if strings.EqualFold(s.Name, ref) {
			return s, nil
		}
		if ref != "" && strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return model.Substance{}, fmt.Errorf("substance %q: %w", ref, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Substance{}, fmt.Errorf("substance %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// resolveEntry finds an entry by full id or short id prefix.
func resolveEntry(ds model.Dataset, ref string) (model.Entry, error) {
	ref = strings.TrimSpace(ref)
	if i := ds.FindEntry(ref); i >= 0 {
		return ds.Entries[i], nil
	}

	var matches []model.Entry
	for _, e := range ds.Entries {
		if ref != "" && strings.HasPrefix(e.ID, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return model.Entry{}, fmt.Errorf("entry %q: %w", ref, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Entry{}, fmt.Errorf("entry %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// optionalMass parses a mass flag that may be left empty.
func optionalMass(field, s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := model.ParseMass(field, s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
