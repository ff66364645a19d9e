// Package stats derives usage, depletion and comparison metrics from the
// tracker dataset. Every function is pure: inputs are never modified.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
)

// Remaining is the advertised mass minus every delta recorded against the
// substance. It goes negative on over-consumption.
func Remaining(s model.Substance, entries []model.Entry) float64 {
	used := sumDeltas(model.EntriesFor(entries, s.ID))
	return model.RoundMass(s.AdvertisedMass - used)
}

// UsageRate is grams per day between the first and last entry for the
// substance. It is zero with fewer than two entries or when every entry
// falls on the same calendar day.
func UsageRate(s model.Substance, entries []model.Entry) float64 {
	own := model.EntriesFor(entries, s.ID)
	if len(own) < 2 {
		return 0
	}

	te := timed(own)
	if len(te) < 2 {
		return 0
	}
	first, last := te[0].At, te[len(te)-1].At
	if model.DayKey(first) == model.DayKey(last) {
		return 0
	}
	days := elapsedDays(first, last)
	if days <= 0 {
		return 0
	}
	return model.RoundRate(sumDeltas(own) / days)
}

// ProjectedDepletion estimates when the substance runs out at its current
// usage rate. entries is the full entry list; a projection needs at least
// two of them overall.
func ProjectedDepletion(s model.Substance, entries []model.Entry, now time.Time) model.Depletion {
	remaining := Remaining(s, entries)
	if remaining <= 0 {
		zero := 0
		return model.Depletion{Depleted: true, DaysRemaining: &zero}
	}

	rate := UsageRate(s, entries)
	if rate == 0 || len(entries) < 2 {
		return model.Depletion{}
	}

	days := int(math.Ceil(remaining / rate))
	date := now.AddDate(0, 0, days)
	return model.Depletion{DaysRemaining: &days, Date: &date}
}

// MassDistribution splits the substance's advertised mass into one segment
// per person who consumed from it, sorted by name, plus a Remaining segment
// clipped at zero.
func MassDistribution(s model.Substance, entries []model.Entry) []model.MassSlice {
	byPerson := make(map[string]float64)
	var total float64
	for _, e := range model.EntriesFor(entries, s.ID) {
		byPerson[e.Person] += e.Delta
		total += e.Delta
	}

	people := make([]string, 0, len(byPerson))
	for p := range byPerson {
		people = append(people, p)
	}
	sort.Strings(people)

	slices := make([]model.MassSlice, 0, len(people)+1)
	for _, p := range people {
		slices = append(slices, model.MassSlice{Name: p, Value: model.RoundMass(byPerson[p])})
	}
	remaining := math.Max(0, s.AdvertisedMass-total)
	slices = append(slices, model.MassSlice{Name: model.RemainingSlice, Value: model.RoundMass(remaining)})
	return slices
}

// SubstanceSummary returns headline numbers for one substance.
func SubstanceSummary(s model.Substance, entries []model.Entry) model.SubstanceSummary {
	own := model.EntriesFor(entries, s.ID)
	total := sumDeltas(own)

	sum := model.SubstanceSummary{
		TotalEntries: len(own),
		TotalUsed:    model.RoundMass(total),
		Remaining:    Remaining(s, entries),
	}
	if len(own) > 0 {
		sum.AverageUsage = model.RoundMass(total / float64(len(own)))
	}
	if te := timed(own); len(te) > 0 {
		last := te[len(te)-1].Entry
		sum.LastEntry = &last
	}
	return sum
}

// reconciliation compares the mass inferred from entries with the mass
// actually gone according to the weighed final reading.
type reconciliation struct {
	actual      float64
	fromEntries float64
	hasFinal    bool
	sessions    int
	avg         float64
}

// reconcile uses every entry for the substance, regardless of person, since
// a final weighing covers everyone who drew from it.
func reconcile(s model.Substance, entries []model.Entry) reconciliation {
	own := model.EntriesFor(entries, s.ID)
	fromEntries := sumDeltas(own)

	r := reconciliation{
		fromEntries: model.RoundMass(fromEntries),
		hasFinal:    s.HasFinalMass(),
		sessions:    len(own),
	}
	actual := fromEntries
	if r.hasFinal {
		actual = s.ReferenceMass() - *s.GrossFinalMass
	}
	r.actual = model.RoundMass(actual)
	if r.sessions > 0 {
		r.avg = model.RoundMass(actual / float64(r.sessions))
	}
	return r
}
