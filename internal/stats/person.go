package stats

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
)

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// OverallStats computes one person's totals across every substance, with
// per-day rates over both the calendar span and the active days.
func OverallStats(entries []model.Entry, person string) model.OverallStats {
	own := FilterByPerson(entries, person)
	if len(own) == 0 {
		return model.OverallStats{}
	}

	totalMass := sumDeltas(own)
	stats := model.OverallStats{
		TotalMass:     model.RoundMass(totalMass),
		TotalSessions: len(own),
	}

	te := timed(own)
	span := 1.0
	if len(te) > 0 {
		first, last := te[0].At, te[len(te)-1].At
		stats.First, stats.Last = &first, &last
		span = math.Max(1, elapsedDays(first, last))

		activeDays := make(map[string]struct{})
		for _, e := range te {
			activeDays[model.DayKey(e.At)] = struct{}{}
		}
		stats.ActiveDays = len(activeDays)
	}
	stats.SpanDays = int(math.Ceil(span))

	stats.MassPerDay = model.RoundRate(totalMass / span)
	stats.SessionsPerDay = model.RoundRate(float64(stats.TotalSessions) / span)
	if stats.ActiveDays > 0 {
		days := float64(stats.ActiveDays)
		stats.MassPerActiveDay = model.RoundRate(totalMass / days)
		stats.SessionsPerActiveDay = model.RoundRate(float64(stats.TotalSessions) / days)
	}
	return stats
}

// PerSubstanceStats breaks one person's usage down by substance, sorted by
// mass descending. Retired substances are skipped unless includeInactive.
// The actual-mass reconciliation covers every person's entries.
func PerSubstanceStats(entries []model.Entry, person string, substances []model.Substance, includeInactive bool) []model.SubstanceStats {
	own := FilterByPerson(entries, person)

	rows := make([]model.SubstanceStats, 0, len(substances))
	for _, s := range substances {
		if !s.Active && !includeInactive {
			continue
		}

		row := model.SubstanceStats{Substance: s}
		se := model.EntriesFor(own, s.ID)
		if len(se) == 0 {
			rows = append(rows, row)
			continue
		}

		totalMass := sumDeltas(se)
		span := 1.0
		if te := timed(se); len(te) > 0 {
			span = math.Max(1, elapsedDays(te[0].At, te[len(te)-1].At))
		}

		rec := reconcile(s, entries)
		row.TotalMass = model.RoundMass(totalMass)
		row.Sessions = len(se)
		row.MassPerDay = model.RoundRate(totalMass / span)
		row.SessionsPerDay = model.RoundRate(float64(len(se)) / span)
		row.ActualMassUsed = rec.actual
		row.UsedFromEntries = rec.fromEntries
		row.HasFinalMass = rec.hasFinal
		row.AvgSessionMass = rec.avg
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalMass > rows[j].TotalMass
	})
	return rows
}

// WeekStart returns local midnight of the most recent Sunday at or before t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeeklyComparison compares one person's current calendar week (from
// Sunday 00:00) with the seven days before it. Percentage changes are zero
// when the previous week is empty.
func WeeklyComparison(entries []model.Entry, person string, now time.Time) model.WeeklyComparison {
	wallNow := model.WallClock(now)
	currentStart := WeekStart(wallNow)
	previousStart := currentStart.AddDate(0, 0, -7)

	var curMass, prevMass float64
	var curSessions, prevSessions int
	for _, e := range timed(FilterByPerson(entries, person)) {
		switch {
		case !e.At.Before(currentStart):
			curMass += e.Delta
			curSessions++
		case !e.At.Before(previousStart):
			prevMass += e.Delta
			prevSessions++
		}
	}

	loc := now.Location()
	return model.WeeklyComparison{
		Current: model.PeriodStats{
			Mass:     model.RoundMass(curMass),
			Sessions: curSessions,
			Start:    inLocation(currentStart, loc),
			End:      now,
		},
		Previous: model.PeriodStats{
			Mass:     model.RoundMass(prevMass),
			Sessions: prevSessions,
			Start:    inLocation(previousStart, loc),
			End:      inLocation(currentStart, loc),
		},
		MassChange:     percentChange(curMass, prevMass),
		SessionsChange: percentChange(float64(curSessions), float64(prevSessions)),
	}
}

// DayOfWeekBreakdown returns Sunday through Saturday with one person's entry
// count and average entry mass on each weekday.
func DayOfWeekBreakdown(entries []model.Entry, person string) []model.DayOfWeekStats {
	var mass [7]float64
	var sessions [7]int
	for _, e := range timed(FilterByPerson(entries, person)) {
		d := e.At.Weekday()
		mass[d] += e.Delta
		sessions[d]++
	}

	out := make([]model.DayOfWeekStats, 7)
	for i := range out {
		out[i] = model.DayOfWeekStats{Day: dayNames[i], Sessions: sessions[i]}
		if sessions[i] > 0 {
			out[i].AvgMass = model.RoundMass(mass[i] / float64(sessions[i]))
		}
	}
	return out
}

func percentChange(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return model.Round((current-previous)/previous*100, model.PercentPlaces)
}

// inLocation reads a wall-clock time back into loc.
func inLocation(wall time.Time, loc *time.Location) time.Time {
	return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc)
}
