// Package model defines the persisted tracker records and derived stat types.
package model

// CurrentVersion is the schema version written by this build.
const CurrentVersion = "2.0"

// UnknownSubstance is displayed for entries whose substance no longer exists.
const UnknownSubstance = "Unknown"

// Substance is a named, depleting supply.
type Substance struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	AdvertisedMass   float64  `json:"advertisedMass"`
	GrossInitialMass *float64 `json:"grossInitialMass"`
	GrossFinalMass   *float64 `json:"grossFinalMass"`
	Active           bool     `json:"active"`
	CreatedAt        string   `json:"createdAt"`
}

// ReferenceMass is the ceiling a recorded gross final mass is checked
// against: the gross initial mass when known, the advertised mass otherwise.
func (s Substance) ReferenceMass() float64 {
	if s.GrossInitialMass != nil {
		return *s.GrossInitialMass
	}
	return s.AdvertisedMass
}

// HasFinalMass reports whether the substance was retired with a weighed
// gross final mass.
func (s Substance) HasFinalMass() bool {
	return s.GrossFinalMass != nil
}

// Entry is one recorded usage event. Delta is the only measured quantity.
type Entry struct {
	ID          string  `json:"id"`
	SubstanceID string  `json:"substanceId"`
	Person      string  `json:"person"`
	Delta       float64 `json:"delta"`
	Timestamp   string  `json:"timestamp"`
	Notes       string  `json:"notes,omitempty"`
}

// Metadata carries the schema version and the last write time.
type Metadata struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
}

// Dataset is the whole persisted document.
type Dataset struct {
	Substances []Substance `json:"substances"`
	Entries    []Entry     `json:"entries"`
	Metadata   Metadata    `json:"metadata"`
}

// Clone returns a deep copy so callers can transform it without touching
// the original.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Substances: make([]Substance, len(d.Substances)),
		Entries:    make([]Entry, len(d.Entries)),
		Metadata:   d.Metadata,
	}
	for i, s := range d.Substances {
		s.GrossInitialMass = cloneFloat(s.GrossInitialMass)
		s.GrossFinalMass = cloneFloat(s.GrossFinalMass)
		out.Substances[i] = s
	}
	copy(out.Entries, d.Entries)
	return out
}

// FindSubstance returns the index of the substance with the given id, or -1.
func (d Dataset) FindSubstance(id string) int {
	for i := range d.Substances {
		if d.Substances[i].ID == id {
			return i
		}
	}
	return -1
}

// FindEntry returns the index of the entry with the given id, or -1.
func (d Dataset) FindEntry(id string) int {
	for i := range d.Entries {
		if d.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// SubstanceName resolves a substance id to its display name.
func (d Dataset) SubstanceName(id string) string {
	if i := d.FindSubstance(id); i >= 0 {
		return d.Substances[i].Name
	}
	return UnknownSubstance
}

// Normalize replaces nil slices with empty ones so the document always
// serializes both arrays.
func (d *Dataset) Normalize() {
	if d.Substances == nil {
		d.Substances = []Substance{}
	}
	if d.Entries == nil {
		d.Entries = []Entry{}
	}
}

// EntriesFor returns the entries recorded against one substance.
func EntriesFor(entries []Entry, substanceID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.SubstanceID == substanceID {
			out = append(out, e)
		}
	}
	return out
}

// Float returns a pointer to v, for the optional mass fields.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
