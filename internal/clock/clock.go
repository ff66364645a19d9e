// Package clock abstracts the current time so statistics and timestamps can
// be pinned in tests.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in the configured location.
type System struct {
	Loc *time.Location
}

func (c System) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
