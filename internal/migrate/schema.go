// Package migrate decodes persisted tracker documents of any known schema
// version and converts them to the current shape.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/theirongolddev/stashtrack/internal/model"
)

// LegacyVersion is the version string written by schema v1.
const LegacyVersion = "1.0"

// Version identifies the shape a document was decoded as.
type Version int

const (
	VersionUnknown Version = iota
	V1
	V2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return "unknown"
	}
}

// SubstanceV1 is a schema v1 substance. The current field names are decoded
// too, so a document routed through v1 keeps values already stored under
// them.
type SubstanceV1 struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	TheoreticalInitialMass *float64 `json:"theoreticalInitialMass"`
	TotalInitialMass       *float64 `json:"totalInitialMass"`
	FinalMass              *float64 `json:"finalMass"`
	AdvertisedMass         *float64 `json:"advertisedMass"`
	GrossInitialMass       *float64 `json:"grossInitialMass"`
	GrossFinalMass         *float64 `json:"grossFinalMass"`
	Active                 *bool    `json:"active"`
	CreatedAt              string   `json:"createdAt"`
}

// EntryV1 is a schema v1 entry, which also stored raw before/after masses.
type EntryV1 struct {
	ID          string   `json:"id"`
	SubstanceID string   `json:"substanceId"`
	Person      string   `json:"person"`
	Delta       *float64 `json:"delta"`
	InitialMass *float64 `json:"initialMass"`
	FinalMass   *float64 `json:"finalMass"`
	Timestamp   string   `json:"timestamp"`
	Notes       *string  `json:"notes"`
}

// MetadataV1 is the v1 metadata block.
type MetadataV1 struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
}

// SchemaV1 is a whole schema v1 document.
type SchemaV1 struct {
	Substances []SubstanceV1 `json:"substances"`
	Entries    []EntryV1     `json:"entries"`
	Metadata   MetadataV1    `json:"metadata"`
}

// Document is a decoded document. Exactly one of V1 and V2 is set,
// according to Version.
type Document struct {
	Version Version
	V1      *SchemaV1
	V2      *model.Dataset

	// Structural presence of the top-level arrays, for callers that must
	// reject incomplete uploads.
	HasSubstances bool
	HasEntries    bool
}

type probe struct {
	Substances []map[string]json.RawMessage `json:"substances"`
	Entries    json.RawMessage              `json:"entries"`
	Metadata   *struct {
		Version *string `json:"version"`
	} `json:"metadata"`
}

// Decode parses data and picks its schema variant. Errors wrap
// model.ErrParse.
func Decode(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Document{}, fmt.Errorf("decoding document: expected a JSON object: %w", model.ErrParse)
	}

	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return Document{}, fmt.Errorf("decoding document: %v: %w", err, model.ErrParse)
	}

	doc := Document{
		Version:       detect(p),
		HasSubstances: p.Substances != nil,
		HasEntries:    len(p.Entries) > 0 && !bytes.Equal(p.Entries, []byte("null")),
	}

	switch doc.Version {
	case V1:
		var v1 SchemaV1
		if err := json.Unmarshal(data, &v1); err != nil {
			return Document{}, fmt.Errorf("decoding v1 document: %v: %w", err, model.ErrParse)
		}
		doc.V1 = &v1
	default:
		var v2 model.Dataset
		if err := json.Unmarshal(data, &v2); err != nil {
			return Document{}, fmt.Errorf("decoding v2 document: %v: %w", err, model.ErrParse)
		}
		doc.V2 = &v2
	}
	return doc, nil
}

// detect applies the version rules: a missing or "1.0" version means v1.
// As a structural fallback, any substance still carrying the legacy
// theoreticalInitialMass field also means v1, whatever the version claims.
func detect(p probe) Version {
	if p.Metadata == nil || p.Metadata.Version == nil || *p.Metadata.Version == LegacyVersion {
		return V1
	}
	for _, s := range p.Substances {
		if _, ok := s["theoreticalInitialMass"]; ok {
			return V1
		}
	}
	return V2
}
