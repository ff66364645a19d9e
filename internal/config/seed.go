package config

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/stashtrack/internal/store"
)

// SeedSubstances converts the configured first-run substances into store
// seeds. The built-in names keep their fixed ids; others get a slug.
func SeedSubstances(cfg Config) []store.SeedSubstance {
	if len(cfg.Seed.Substances) == 0 {
		return store.DefaultSeedSubstances
	}

	builtin := make(map[string]string, len(store.DefaultSeedSubstances))
	for _, s := range store.DefaultSeedSubstances {
		builtin[s.Name] = s.ID
	}

	out := make([]store.SeedSubstance, 0, len(cfg.Seed.Substances))
	seen := make(map[string]int)
	for _, s := range cfg.Seed.Substances {
		id, ok := builtin[s.Name]
		if !ok {
			id = "substance-" + slug(s.Name)
		}
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s-%d", id, n)
		}
		out = append(out, store.SeedSubstance{ID: id, Name: s.Name, AdvertisedMass: s.AdvertisedMass})
	}
	return out
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
