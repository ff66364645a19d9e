package stats

import (
	"sort"
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
)

// timedEntry pairs an entry with its parsed wall-clock time.
type timedEntry struct {
	model.Entry
	At time.Time
}

// timed parses entry timestamps and returns the parseable entries in
// ascending time order. Entries with unreadable timestamps still count
// toward mass and session totals elsewhere; they are only left out of
// anything that needs a time.
func timed(entries []model.Entry) []timedEntry {
	out := make([]timedEntry, 0, len(entries))
	for _, e := range entries {
		at, err := model.ParseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		out = append(out, timedEntry{Entry: e, At: at})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out
}

// FilterByPerson returns the entries recorded by person.
func FilterByPerson(entries []model.Entry, person string) []model.Entry {
	var result []model.Entry
	for _, e := range entries {
		if e.Person == person {
			result = append(result, e)
		}
	}
	return result
}

// FilterBySubstance returns the entries recorded against one substance.
func FilterBySubstance(entries []model.Entry, substanceID string) []model.Entry {
	return model.EntriesFor(entries, substanceID)
}

// EntriesInRange returns entries whose timestamp falls within
// [since, until]. Bounds are compared by wall-clock reading.
func EntriesInRange(entries []model.Entry, since, until time.Time) []model.Entry {
	lo, hi := model.WallClock(since), model.WallClock(until)
	var result []model.Entry
	for _, e := range entries {
		at, err := model.ParseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		if at.Before(lo) || at.After(hi) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// UniquePeople returns the distinct persons that recorded entries, sorted.
func UniquePeople(entries []model.Entry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.Person != "" {
			seen[e.Person] = struct{}{}
		}
	}
	people := make([]string, 0, len(seen))
	for p := range seen {
		people = append(people, p)
	}
	sort.Strings(people)
	return people
}

func sumDeltas(entries []model.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Delta
	}
	return total
}

// elapsedDays is the fractional number of days between two times.
func elapsedDays(first, last time.Time) float64 {
	return last.Sub(first).Hours() / 24
}
