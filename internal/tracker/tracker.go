// Package tracker is the operation surface the CLI and HTTP API drive. It
// validates input, applies mutations through the store and delegates
// statistics to the stats package.
package tracker

import (
	"fmt"
	"io"
	"time"

	"github.com/theirongolddev/stashtrack/internal/clock"
	"github.com/theirongolddev/stashtrack/internal/codec"
	"github.com/theirongolddev/stashtrack/internal/model"
	"github.com/theirongolddev/stashtrack/internal/store"
)

// Options configures a Tracker. Zero values use the system clock, random
// UUIDs and the local timezone.
type Options struct {
	Clock    clock.Clock
	IDs      model.IDGenerator
	Location *time.Location
}

// Tracker performs tracker operations against one store.
type Tracker struct {
	store *store.Store
	clock clock.Clock
	ids   model.IDGenerator
	loc   *time.Location
}

// New creates a Tracker over st.
func New(st *store.Store, opts Options) *Tracker {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{Loc: opts.Location}
	}
	if opts.IDs == nil {
		opts.IDs = model.UUIDGenerator{}
	}
	return &Tracker{store: st, clock: opts.Clock, ids: opts.IDs, loc: opts.Location}
}

// Now is the tracker's current time in its location.
func (t *Tracker) Now() time.Time {
	return t.clock.Now().In(t.loc)
}

// Location is the timezone new timestamps are recorded in.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

func (t *Tracker) stamp() string {
	return model.FormatTimestamp(t.Now())
}

// LoadDataset returns the current dataset, migrating and seeding as needed.
func (t *Tracker) LoadDataset() (model.Dataset, error) {
	return t.store.Load()
}

// SaveDataset replaces the persisted dataset wholesale.
func (t *Tracker) SaveDataset(ds model.Dataset) (model.Dataset, error) {
	return t.store.Save(ds)
}

// AddSubstance creates an active substance.
func (t *Tracker) AddSubstance(name string, advertisedMass float64, grossInitialMass *float64) (model.Substance, error) {
	s, err := model.NewSubstance(model.SubstanceInput{
		Name:             name,
		AdvertisedMass:   advertisedMass,
		GrossInitialMass: grossInitialMass,
	}, t.ids.New(), t.stamp())
	if err != nil {
		return model.Substance{}, err
	}

	_, err = t.store.Update(func(ds model.Dataset) (model.Dataset, error) {
		ds.Substances = append(ds.Substances, s)
		return ds, nil
	})
	if err != nil {
		return model.Substance{}, fmt.Errorf("adding substance: %w", err)
	}
	return s, nil
}

// SubstancePatch holds the substance fields an edit may change. Nil fields
// are left as they are.
type SubstancePatch struct {
	Name             *string
	AdvertisedMass   *float64
	GrossInitialMass *float64
}

// UpdateSubstance applies patch to the substance with the given id.
func (t *Tracker) UpdateSubstance(id string, patch SubstancePatch) (model.Substance, error) {
	var updated model.Substance
	_, err := t.store.Update(func(ds model.Dataset) (model.Dataset, error) {
		i := ds.FindSubstance(id)
		if i < 0 {
			return ds, fmt.Errorf("substance %q: %w", id, model.ErrNotFound)
		}
		s := ds.Substances[i]
		if patch.Name != nil {
			s.Name = *patch.Name
		}
		if patch.AdvertisedMass != nil {
			s.AdvertisedMass = *patch.AdvertisedMass
		}
		if patch.GrossInitialMass != nil {
			s.GrossInitialMass = model.Float(*patch.GrossInitialMass)
		}
		in, err := model.CheckSubstanceInput(model.SubstanceInput{
			Name:             s.Name,
			AdvertisedMass:   s.AdvertisedMass,
			GrossInitialMass: s.GrossInitialMass,
			GrossFinalMass:   s.GrossFinalMass,
		})
		if err != nil {
			return ds, err
		}
		s.Name = in.Name
		if err := s.Validate(); err != nil {
			return ds, err
		}
		ds.Substances[i] = s
		updated = s
		return ds, nil
	})
	if err != nil {
		return model.Substance{}, fmt.Errorf("updating substance: %w", err)
	}
	return updated, nil
}

// DeactivateSubstance retires a substance, optionally recording the weighed
// gross final mass.
func (t *Tracker) DeactivateSubstance(id string, grossFinalMass *float64) (model.Substance, error) {
	return t.setActive(id, false, grossFinalMass)
}

// ReactivateSubstance puts a retired substance back in use and forgets its
// final mass.
func (t *Tracker) ReactivateSubstance(id string) (model.Substance, error) {
	return t.setActive(id, true, nil)
}

func (t *Tracker) setActive(id string, active bool, finalMass *float64) (model.Substance, error) {
	var updated model.Substance
	_, err := t.store.Update(func(ds model.Dataset) (model.Dataset, error) {
		i := ds.FindSubstance(id)
		if i < 0 {
			return ds, fmt.Errorf("substance %q: %w", id, model.ErrNotFound)
		}
		s := ds.Substances[i]
		s.Active = active
		switch {
		case active:
			s.GrossFinalMass = nil
		case finalMass != nil:
			if err := model.CheckFinalMass(s, *finalMass); err != nil {
				return ds, err
			}
			s.GrossFinalMass = model.Float(*finalMass)
		}
		ds.Substances[i] = s
		updated = s
		return ds, nil
	})
	if err != nil {
		return model.Substance{}, fmt.Errorf("updating substance: %w", err)
	}
	return updated, nil
}

// DeleteSubstance removes a substance. Its entries stay and display as
// "Unknown".
func (t *Tracker) DeleteSubstance(id string) error {
	_, err := t.store.Update(func(ds model.Dataset) (model.Dataset, error) {
		i := ds.FindSubstance(id)
		if i < 0 {
			return ds, fmt.Errorf("substance %q: %w", id, model.ErrNotFound)
		}
		ds.Substances = append(ds.Substances[:i], ds.Substances[i+1:]...)
		return ds, nil
	})
	if err != nil {
		return fmt.Errorf("deleting substance: %w", err)
	}
	return nil
}

// AddEntry records usage against an active substance. New entries are
// stored first, so the entry list reads newest first.
func (t *Tracker) AddEntry(substanceID, person string, delta float64, notes string) (model.Entry, error) {
	e, err := model.NewEntry(model.EntryInput{
		SubstanceID: substanceID,
		Person:      person,
		Delta:       delta,
		Notes:       notes,
	}, t.ids.New(), t.stamp())
	if err != nil {
		return model.Entry{}, err
	}

	_, err = t.store.Update(func(ds model.Dataset) (model.Dataset, error) {
		i := ds.FindSubstance(e.SubstanceID)
		if i < 0 {
			return ds, fmt.Errorf("substance %q: %w", e.SubstanceID, model.ErrNotFound)
		}
		if !ds.Substances[i].Active {
			return ds, &model.ValidationError{Field: "substanceId", Reason: "substance is not active"}
		}
		ds.Entries = append([]model.Entry{e}, ds.Entries...)
		return ds, nil
	})
	if err != nil {
		return model.Entry{}, fmt.Errorf("adding entry: %w", err)
	}
	return e, nil
}

// UpdateEntry corrects the recorded delta of an entry.
func (t *Tracker) UpdateEntry(id string, delta float64) (model.Entry, error) {
	if !model.IsValidMass(delta) {
		return model.Entry{}, &model.ValidationError{Field: "delta", Reason: "must be a non-negative number"}
	}

	var updated model.Entry
	_, err := t.store.Update(func(ds model.Dataset) (model.Dataset, error) {
		i := ds.FindEntry(id)
		if i < 0 {
			return ds, fmt.Errorf("entry %q: %w", id, model.ErrNotFound)
		}
		ds.Entries[i].Delta = model.RoundMass(delta)
		updated = ds.Entries[i]
		return ds, nil
	})
	if err != nil {
		return model.Entry{}, fmt.Errorf("updating entry: %w", err)
	}
	return updated, nil
}

// DeleteEntry removes one entry.
func (t *Tracker) DeleteEntry(id string) error {
	_, err := t.store.Update(func(ds model.Dataset) (model.Dataset, error) {
		i := ds.FindEntry(id)
		if i < 0 {
			return ds, fmt.Errorf("entry %q: %w", id, model.ErrNotFound)
		}
		ds.Entries = append(ds.Entries[:i], ds.Entries[i+1:]...)
		return ds, nil
	})
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}

// ExportJSON renders the current dataset as a JSON backup.
func (t *Tracker) ExportJSON() ([]byte, error) {
	ds, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	return codec.ExportJSON(ds)
}

// ExportCSV writes the current entries as CSV.
func (t *Tracker) ExportCSV(w io.Writer) error {
	ds, err := t.store.Load()
	if err != nil {
		return err
	}
	return codec.ExportCSV(w, ds)
}

// ImportJSON parses a backup and, when it is valid, replaces the stored
// dataset with it. A rejected file leaves the store untouched.
func (t *Tracker) ImportJSON(r io.Reader) (model.Dataset, error) {
	ds, err := codec.ImportJSON(r, t.loc)
	if err != nil {
		return model.Dataset{}, err
	}
	saved, err := t.store.Save(ds)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("saving import: %w", err)
	}
	return saved, nil
}

// ClearAll deletes every substance and entry. The next load reseeds.
// Callers must confirm with the user first.
func (t *Tracker) ClearAll() error {
	return t.store.Clear()
}

// ExportFilename names an export of the given kind made now.
func (t *Tracker) ExportFilename(kind codec.Kind) string {
	return codec.Filename(kind, t.Now())
}
