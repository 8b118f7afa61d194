// Package tabular loads spreadsheet and delimited-text files into core
// tables and writes merged tables back out.
//
// Supported inputs:
//   - .csv: comma separated, decoded as UTF-8, then UTF-16 (BOM), then
//     Windows-1252
//   - .tsv, .txt: tab separated, same decoding
//   - .xlsx: first sheet only, raw cell values
//
// Every loader shares the same header and cell rules: header names are
// trimmed, blank headers become "Unnamed: N" and repeated headers get a
// ".1", ".2" suffix. Conventional null markers (NULL, NaN, N/A, ...) load as
// null and remaining cells are typed with core.ParseCell.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/keymerge/internal/core"
)

var (
	// ErrUnsupportedFormat means the file extension is not a supported format.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile means the file has no header or no data rows.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidCSV means delimited text could not be parsed.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrInvalidSpreadsheet means a workbook could not be opened or read.
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

	// ErrFileTooLarge means the input exceeded the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file name to its input format by extension.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".txt":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// NullMarkers are cell texts loaded as null, compared after trimming.
var NullMarkers = map[string]bool{
	"NULL": true, "null": true, "Null": true,
	"NaN": true, "nan": true, "-NaN": true, "-nan": true,
	"N/A": true, "n/a": true, "NA": true, "#N/A": true, "#NA": true, "<NA>": true,
	"None": true, "none": true,
}

// ReadFile loads the file at path.
func ReadFile(path string) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(filepath.Base(path), f, 0)
}

// Read loads a table from r; name supplies the format and the table name.
// A positive maxSize rejects inputs larger than maxSize bytes.
func Read(name string, r io.Reader, maxSize int64) (*core.Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, name, maxSize)
	}

	return ReadBytes(name, format, data)
}

// ReadBytes loads a table from an in-memory file.
func ReadBytes(name string, format Format, data []byte) (*core.Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}

	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = parseDelimited(data, ',')
	case FormatTSV:
		records, err = parseDelimited(data, '\t')
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return buildTable(name, records)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as UTF-8. Valid UTF-8 wins, then UTF-16 when a
// BOM says so, and Windows-1252 (which never fails) last.
func decodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		data = data[len(utf8BOM):]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}

func parseDelimited(data []byte, comma rune) ([][]string, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	return records, nil
}

// buildTable turns raw records (header first) into a core table.
func buildTable(name string, records [][]string) (*core.Table, error) {
	records = dropEmptyRows(records)
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s has no data rows", ErrEmptyFile, name)
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	header := make([]string, width)
	copy(header, records[0])
	columns := cleanHeaders(header)

	rows := make([]core.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(core.Row, width)
		for i, col := range columns {
			if i < len(rec) {
				row[col] = parseValue(rec[i])
			} else {
				row[col] = core.Null()
			}
		}
		rows = append(rows, row)
	}

	return core.NewTable(name, columns, rows)
}

// cleanHeaders trims header names and makes them non-empty and unique.
func cleanHeaders(raw []string) []string {
	columns := make([]string, len(raw))
	used := make(map[string]bool, len(raw))

	for i, h := range raw {
		name := cleanHeader(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if used[name] {
			base := name
			for n := 1; used[name]; n++ {
				name = fmt.Sprintf("%s.%d", base, n)
			}
		}
		used[name] = true
		columns[i] = name
	}
	return columns
}

// cleanHeader removes common export artifacts from a header cell:
//   - surrounding whitespace
//   - Excel formula wrapper (="...")
//   - surrounding quotes
func cleanHeader(s string) string {
	s = strings.TrimSpace(s)
	s = unwrapFormula(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// parseValue types one data cell. Formula-wrapped text (="00123") keeps its
// inner text, which is how spreadsheets protect leading zeros in exports.
func parseValue(s string) core.Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || NullMarkers[trimmed] {
		return core.Null()
	}
	if inner := unwrapFormula(trimmed); inner != trimmed {
		if inner == "" {
			return core.Null()
		}
		return core.String(inner)
	}
	return core.ParseCell(s)
}

func unwrapFormula(s string) string {
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		return s[2 : len(s)-1]
	}
	return s
}

func dropEmptyRows(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		if !isEmptyRow(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
