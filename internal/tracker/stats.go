package tracker

import (
	"fmt"
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
	"github.com/theirongolddev/stashtrack/internal/stats"
)

// SubstanceReport bundles the per-substance figures shown on a detail view.
type SubstanceReport struct {
	Substance    model.Substance        `json:"substance"`
	Remaining    float64                `json:"remaining"`
	UsageRate    float64                `json:"usageRate"`
	Depletion    model.Depletion        `json:"depletion"`
	Distribution []model.MassSlice      `json:"distribution"`
	Summary      model.SubstanceSummary `json:"summary"`
}

// PersonReport bundles one person's figures across all substances.
type PersonReport struct {
	Person     string                 `json:"person"`
	Overall    model.OverallStats     `json:"overall"`
	Substances []model.SubstanceStats `json:"substances"`
	Weekly     model.WeeklyComparison `json:"weekly"`
	DayOfWeek  []model.DayOfWeekStats `json:"dayOfWeek"`
}

func (t *Tracker) substance(id string) (model.Substance, model.Dataset, error) {
	ds, err := t.store.Load()
	if err != nil {
		return model.Substance{}, ds, err
	}
	i := ds.FindSubstance(id)
	if i < 0 {
		return model.Substance{}, ds, fmt.Errorf("substance %q: %w", id, model.ErrNotFound)
	}
	return ds.Substances[i], ds, nil
}

// Remaining is the substance's advertised mass less everything logged.
func (t *Tracker) Remaining(substanceID string) (float64, error) {
	s, ds, err := t.substance(substanceID)
	if err != nil {
		return 0, err
	}
	return stats.Remaining(s, ds.Entries), nil
}

// UsageRate is the substance's consumption in grams per day.
func (t *Tracker) UsageRate(substanceID string) (float64, error) {
	s, ds, err := t.substance(substanceID)
	if err != nil {
		return 0, err
	}
	return stats.UsageRate(s, ds.Entries), nil
}

// ProjectedDepletion estimates when the substance runs out, from now.
func (t *Tracker) ProjectedDepletion(substanceID string) (model.Depletion, error) {
	s, ds, err := t.substance(substanceID)
	if err != nil {
		return model.Depletion{}, err
	}
	return stats.ProjectedDepletion(s, ds.Entries, t.Now()), nil
}

// MassDistribution splits the substance's mass by person.
func (t *Tracker) MassDistribution(substanceID string) ([]model.MassSlice, error) {
	s, ds, err := t.substance(substanceID)
	if err != nil {
		return nil, err
	}
	return stats.MassDistribution(s, ds.Entries), nil
}

// SubstanceReport computes every per-substance figure from one load.
func (t *Tracker) SubstanceReport(substanceID string) (SubstanceReport, error) {
	s, ds, err := t.substance(substanceID)
	if err != nil {
		return SubstanceReport{}, err
	}
	return BuildSubstanceReport(s, ds.Entries, t.Now()), nil
}

// BuildSubstanceReport computes a SubstanceReport from an already loaded
// entry list.
func BuildSubstanceReport(s model.Substance, entries []model.Entry, now time.Time) SubstanceReport {
	return SubstanceReport{
		Substance:    s,
		Remaining:    stats.Remaining(s, entries),
		UsageRate:    stats.UsageRate(s, entries),
		Depletion:    stats.ProjectedDepletion(s, entries, now),
		Distribution: stats.MassDistribution(s, entries),
		Summary:      stats.SubstanceSummary(s, entries),
	}
}

// OverallStats returns one person's totals.
func (t *Tracker) OverallStats(person string) (model.OverallStats, error) {
	ds, err := t.store.Load()
	if err != nil {
		return model.OverallStats{}, err
	}
	return stats.OverallStats(ds.Entries, person), nil
}

// PerSubstanceStats returns one person's per-substance breakdown.
func (t *Tracker) PerSubstanceStats(person string, includeInactive bool) ([]model.SubstanceStats, error) {
	ds, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	return stats.PerSubstanceStats(ds.Entries, person, ds.Substances, includeInactive), nil
}

// WeeklyComparison compares this week with last week for one person.
func (t *Tracker) WeeklyComparison(person string) (model.WeeklyComparison, error) {
	ds, err := t.store.Load()
	if err != nil {
		return model.WeeklyComparison{}, err
	}
	return stats.WeeklyComparison(ds.Entries, person, t.Now()), nil
}

// DayOfWeekBreakdown returns one person's usage by weekday.
func (t *Tracker) DayOfWeekBreakdown(person string) ([]model.DayOfWeekStats, error) {
	ds, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	return stats.DayOfWeekBreakdown(ds.Entries, person), nil
}

// People lists everyone who has logged an entry.
func (t *Tracker) People() ([]string, error) {
	ds, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	return stats.UniquePeople(ds.Entries), nil
}

// PersonReport computes every per-person figure from one load.
func (t *Tracker) PersonReport(person string, includeInactive bool) (PersonReport, error) {
	ds, err := t.store.Load()
	if err != nil {
		return PersonReport{}, err
	}
	return PersonReport{
		Person:     person,
		Overall:    stats.OverallStats(ds.Entries, person),
		Substances: stats.PerSubstanceStats(ds.Entries, person, ds.Substances, includeInactive),
		Weekly:     stats.WeeklyComparison(ds.Entries, person, t.Now()),
		DayOfWeek:  stats.DayOfWeekBreakdown(ds.Entries, person),
	}, nil
}
