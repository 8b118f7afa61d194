package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/keymerge/internal/core"
)

// OutputPath resolves the format for a merged-table destination. .csv
// writes CSV and .xlsx writes a workbook; anything else becomes a workbook
// with ".xlsx" appended.
func OutputPath(path string) (string, Format) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return path, FormatCSV
	case ".xlsx":
		return path, FormatXLSX
	}
	return path + ".xlsx", FormatXLSX
}

// Write encodes t to w in the given format.
func Write(w io.Writer, t *core.Table, format Format) error {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(t.Records()); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	case FormatTSV:
		cw := csv.NewWriter(w)
		cw.Comma = '\t'
		if err := cw.WriteAll(t.Records()); err != nil {
			return fmt.Errorf("write tsv: %w", err)
		}
		return nil
	case FormatXLSX:
		return writeXLSX(w, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// WriteFile writes t to path and returns the path actually written, which
// differs from path when an extension had to be added.
func WriteFile(path string, t *core.Table) (string, error) {
	out, format := OutputPath(path)

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", out, err)
	}

	if err := Write(f, t, format); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", out, err)
	}
	return out, nil
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}
