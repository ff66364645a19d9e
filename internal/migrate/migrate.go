package migrate

import (
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
)

// DefaultAdvertisedMass is applied to v1 substances that recorded no mass.
const DefaultAdvertisedMass = 1.0

// Report describes what a migration changed.
type Report struct {
	From                 Version
	Renamed              bool
	Restamped            bool
	TimestampsNormalized int
}

// Changed reports whether the migrated dataset differs from what was stored.
func (r Report) Changed() bool {
	return r.Renamed || r.Restamped || r.TimestampsNormalized > 0
}

// Migrate converts doc to the current schema: field renames first, then
// timestamp normalization into loc. It is deterministic and idempotent, and
// keeps every substance and entry.
func Migrate(doc Document, loc *time.Location) (model.Dataset, Report) {
	rep := Report{From: doc.Version}

	var ds model.Dataset
	switch {
	case doc.V1 != nil:
		ds = RenameFields(*doc.V1)
		rep.Renamed = true
	case doc.V2 != nil:
		ds = doc.V2.Clone()
	}
	ds.Normalize()

	ds, rep.TimestampsNormalized = NormalizeTimestamps(ds, loc)
	if ds.Metadata.Version != model.CurrentVersion {
		ds.Metadata.Version = model.CurrentVersion
		rep.Restamped = true
	}
	return ds, rep
}

// RenameFields maps a v1 document onto the v2 shape. Per substance:
// theoreticalInitialMass → advertisedMass (default 1.0), totalInitialMass →
// grossInitialMass, finalMass → grossFinalMass. Entries drop their raw
// masses and keep id, substanceId, person, delta, timestamp and notes.
func RenameFields(v1 SchemaV1) model.Dataset {
	ds := model.Dataset{
		Substances: make([]model.Substance, 0, len(v1.Substances)),
		Entries:    make([]model.Entry, 0, len(v1.Entries)),
		Metadata: model.Metadata{
			Version:     model.CurrentVersion,
			LastUpdated: v1.Metadata.LastUpdated,
		},
	}

	for _, s := range v1.Substances {
		advertised := DefaultAdvertisedMass
		if m := firstSet(s.TheoreticalInitialMass, s.AdvertisedMass); m != nil {
			advertised = *m
		}
		active := true
		if s.Active != nil {
			active = *s.Active
		}
		ds.Substances = append(ds.Substances, model.Substance{
			ID:               s.ID,
			Name:             s.Name,
			AdvertisedMass:   advertised,
			GrossInitialMass: copyOf(firstSet(s.TotalInitialMass, s.GrossInitialMass)),
			GrossFinalMass:   copyOf(firstSet(s.FinalMass, s.GrossFinalMass)),
			Active:           active,
			CreatedAt:        s.CreatedAt,
		})
	}

	for _, e := range v1.Entries {
		entry := model.Entry{
			ID:          e.ID,
			SubstanceID: e.SubstanceID,
			Person:      e.Person,
			Delta:       entryDelta(e),
			Timestamp:   e.Timestamp,
		}
		if e.Notes != nil {
			entry.Notes = *e.Notes
		}
		ds.Entries = append(ds.Entries, entry)
	}
	return ds
}

// entryDelta keeps the stored delta; very old entries that only kept raw
// masses get it derived from them.
func entryDelta(e EntryV1) float64 {
	if e.Delta != nil {
		return *e.Delta
	}
	if e.InitialMass != nil && e.FinalMass != nil {
		return model.RoundMass(*e.InitialMass - *e.FinalMass)
	}
	return 0
}

// NeedsTimestampNormalization reports whether any timestamp carries a UTC
// designator or offset suffix.
func NeedsTimestampNormalization(ds model.Dataset) bool {
	for _, e := range ds.Entries {
		if model.IsZoned(e.Timestamp) {
			return true
		}
	}
	for _, s := range ds.Substances {
		if model.IsZoned(s.CreatedAt) {
			return true
		}
	}
	return false
}

// NormalizeTimestamps rewrites zoned entry timestamps and substance creation
// times as naive wall-clock strings in loc. Values that cannot be parsed are
// left untouched. It returns the number of values rewritten.
func NormalizeTimestamps(ds model.Dataset, loc *time.Location) (model.Dataset, int) {
	if !NeedsTimestampNormalization(ds) {
		return ds, 0
	}
	if loc == nil {
		loc = time.Local
	}

	out := ds.Clone()
	n := 0
	for i := range out.Entries {
		if ts, ok := naive(out.Entries[i].Timestamp, loc); ok {
			out.Entries[i].Timestamp = ts
			n++
		}
	}
	for i := range out.Substances {
		if ts, ok := naive(out.Substances[i].CreatedAt, loc); ok {
			out.Substances[i].CreatedAt = ts
			n++
		}
	}
	return out, n
}

func naive(s string, loc *time.Location) (string, bool) {
	if !model.IsZoned(s) {
		return "", false
	}
	t, err := model.ParseTimestampIn(s, loc)
	if err != nil {
		return "", false
	}
	return model.FormatTimestamp(t), true
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func copyOf(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
