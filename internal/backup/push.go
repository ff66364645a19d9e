package backup

import (
	"bytes"
	"context"
	"io"

	"github.com/theirongolddev/stashtrack/internal/codec"
)

// Exporter produces the export files that get backed up.
type Exporter interface {
	ExportJSON() ([]byte, error)
	ExportCSV(w io.Writer) error
	ExportFilename(kind codec.Kind) string
}

// Push uploads a JSON and a CSV export of the current dataset.
func Push(ctx context.Context, u *Uploader, ex Exporter) ([]Object, error) {
	data, err := ex.ExportJSON()
	if err != nil {
		return nil, err
	}
	jsonObj, err := u.Upload(ctx, ex.ExportFilename(codec.KindJSON), "application/json", data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := ex.ExportCSV(&buf); err != nil {
		return nil, err
	}
	csvObj, err := u.Upload(ctx, ex.ExportFilename(codec.KindCSV), "text/csv", buf.Bytes())
	if err != nil {
		return nil, err
	}
	return []Object{jsonObj, csvObj}, nil
}
