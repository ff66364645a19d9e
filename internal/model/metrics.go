package model

import "time"

// Depletion projects when a substance runs out. DaysRemaining and Date are
// nil when there is not enough history to project.
type Depletion struct {
	Depleted      bool       `json:"depleted"`
	DaysRemaining *int       `json:"daysRemaining"`
	Date          *time.Time `json:"date"`
}

// InsufficientData reports whether no projection could be made.
func (d Depletion) InsufficientData() bool {
	return !d.Depleted && d.DaysRemaining == nil
}

// OverallStats holds one person's totals across all substances.
type OverallStats struct {
	TotalMass     float64    `json:"totalMass"`
	TotalSessions int        `json:"totalSessions"`
	First         *time.Time `json:"first"`
	Last          *time.Time `json:"last"`
	SpanDays      int        `json:"spanDays"`
	ActiveDays    int        `json:"activeDays"`

	// Rates over the calendar span between first and last entry.
	MassPerDay     float64 `json:"massPerDay"`
	SessionsPerDay float64 `json:"sessionsPerDay"`

	// Rates over days with at least one entry.
	MassPerActiveDay     float64 `json:"massPerActiveDay"`
	SessionsPerActiveDay float64 `json:"sessionsPerActiveDay"`
}

// SubstanceStats is one row of the per-substance breakdown.
type SubstanceStats struct {
	Substance      Substance `json:"substance"`
	TotalMass      float64   `json:"totalMass"`
	Sessions       int       `json:"sessions"`
	MassPerDay     float64   `json:"massPerDay"`
	SessionsPerDay float64   `json:"sessionsPerDay"`

	// Reconciliation against the weighed final mass, across all persons.
	ActualMassUsed  float64 `json:"actualMassUsed"`
	UsedFromEntries float64 `json:"usedFromEntries"`
	HasFinalMass    bool    `json:"hasFinalMass"`
	AvgSessionMass  float64 `json:"avgSessionMass"`
}

// PeriodStats holds mass and session counts for one week.
type PeriodStats struct {
	Mass     float64   `json:"mass"`
	Sessions int       `json:"sessions"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// WeeklyComparison compares the current calendar week with the one before.
type WeeklyComparison struct {
	Current  PeriodStats `json:"current"`
	Previous PeriodStats `json:"previous"`

	// Percentage changes; zero when the previous week has no baseline.
	MassChange     float64 `json:"massChange"`
	SessionsChange float64 `json:"sessionsChange"`
}

// MassSlice is one segment of a substance's mass distribution.
type MassSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// RemainingSlice names the distribution segment for unconsumed mass.
const RemainingSlice = "Remaining"

// DayOfWeekStats holds the average entry mass for one weekday.
type DayOfWeekStats struct {
	Day      string  `json:"day"`
	Sessions int     `json:"sessions"`
	AvgMass  float64 `json:"avgMass"`
}

// SubstanceSummary holds the headline numbers for one substance.
type SubstanceSummary struct {
	TotalEntries int     `json:"totalEntries"`
	TotalUsed    float64 `json:"totalUsed"`
	Remaining    float64 `json:"remaining"`
	AverageUsage float64 `json:"averageUsage"`
	LastEntry    *Entry  `json:"lastEntry"`
}
