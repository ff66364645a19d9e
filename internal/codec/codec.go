// Package codec converts the tracker dataset to and from its JSON and CSV
// file formats.
package codec

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/stashtrack/internal/migrate"
	"github.com/theirongolddev/stashtrack/internal/model"
)

// ErrInvalidBackup is returned by ImportJSON when the document parses but
// lacks the substances or entries array.
var ErrInvalidBackup = errors.New("invalid backup file format")

// Kind selects an export format.
type Kind string

const (
	KindJSON Kind = "json"
	KindCSV  Kind = "csv"
)

// CSVHeader is the first line of every CSV export.
var CSVHeader = []string{"Date", "Time", "Substance", "Person", "Delta (g)"}

// maxImportSize bounds how much of an uploaded file is read.
const maxImportSize = 32 << 20

// ExportJSON renders the full dataset pretty-printed with two-space indents.
func ExportJSON(ds model.Dataset) ([]byte, error) {
	ds.Normalize()
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

// ExportCSV writes one row per entry. Substance ids that no longer resolve
// are written as "Unknown". Data cells are always quoted.
func ExportCSV(w io.Writer, ds model.Dataset) error {
	names := make(map[string]string, len(ds.Substances))
	for _, s := range ds.Substances {
		names[s.ID] = s.Name
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(CSVHeader, ",") + "\n"); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, e := range ds.Entries {
		name, ok := names[e.SubstanceID]
		if !ok {
			name = model.UnknownSubstance
		}
		date, clock := splitTimestamp(e.Timestamp)
		row := []string{date, clock, name, e.Person, strconv.FormatFloat(e.Delta, 'f', -1, 64)}
		for i, cell := range row {
			row[i] = quote(cell)
		}
		if _, err := bw.WriteString(strings.Join(row, ",") + "\n"); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	return bw.Flush()
}

// splitTimestamp returns the date and time-of-day columns for a stored
// timestamp. Unreadable values land whole in the date column.
func splitTimestamp(ts string) (string, string) {
	t, err := model.ParseTimestamp(ts)
	if err != nil {
		return ts, ""
	}
	return t.Format(model.DateLayout), t.Format("15:04:05")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ImportJSON parses an uploaded backup. Legacy documents are migrated and
// zoned timestamps normalized into loc. Nothing is returned unless both
// the substances and entries arrays are present and every record passes
// validation.
func ImportJSON(r io.Reader, loc *time.Location) (model.Dataset, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportSize))
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading import: %w", err)
	}

	doc, err := migrate.Decode(data)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("importing: %w", err)
	}
	if !doc.HasSubstances || !doc.HasEntries {
		return model.Dataset{}, ErrInvalidBackup
	}

	ds, _ := migrate.Migrate(doc, loc)
	if err := validateRecords(ds); err != nil {
		return model.Dataset{}, err
	}
	return ds, nil
}

// validateRecords returns the first record that breaks a model invariant.
func validateRecords(ds model.Dataset) error {
	for i, s := range ds.Substances {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("importing substance %d (%s): %w", i, s.ID, err)
		}
	}
	for i, e := range ds.Entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("importing entry %d (%s): %w", i, e.ID, err)
		}
	}
	return nil
}

// Filename is the download name for an export made at now, e.g.
// tracker-2026-03-04.json.
func Filename(kind Kind, now time.Time) string {
	return fmt.Sprintf("tracker-%s.%s", now.Format(model.DateLayout), kind)
}
