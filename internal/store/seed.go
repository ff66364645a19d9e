package store

import "github.com/theirongolddev/stashtrack/internal/model"

// SeedSubstance describes one substance created on first run.
type SeedSubstance struct {
	ID             string
	Name           string
	AdvertisedMass float64
}

// DefaultSeedSubstances are created when no dataset exists yet.
var DefaultSeedSubstances = []SeedSubstance{
	{ID: "substance-apollo", Name: "Apollo", AdvertisedMass: 1},
	{ID: "substance-gramlin", Name: "Gramlin", AdvertisedMass: 1},
}

const seedCreatedAt = "2026-01-01T00:00:00"

// DefaultSeed returns the built-in first-run dataset.
func DefaultSeed() model.Dataset {
	return SeedFrom(DefaultSeedSubstances)
}

// SeedFrom builds a first-run dataset from the given substances.
func SeedFrom(subs []SeedSubstance) model.Dataset {
	ds := model.Dataset{
		Substances: make([]model.Substance, 0, len(subs)),
		Entries:    []model.Entry{},
		Metadata:   model.Metadata{Version: model.CurrentVersion},
	}
	for _, s := range subs {
		ds.Substances = append(ds.Substances, model.Substance{
			ID:             s.ID,
			Name:           s.Name,
			AdvertisedMass: s.AdvertisedMass,
			Active:         true,
			CreatedAt:      seedCreatedAt,
		})
	}
	return ds
}
