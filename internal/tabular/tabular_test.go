package tabular

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/JonMunkholm/keymerge/internal/core"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "a.csv", want: FormatCSV},
		{name: "A.CSV", want: FormatCSV},
		{name: "a.tsv", want: FormatTSV},
		{name: "a.txt", want: FormatTSV},
		{name: "a.xlsx", want: FormatXLSX},
		{name: "a.xls", wantErr: true},
		{name: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				assert.Equal(t, "FILE003", core.MapError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRead_CSV(t *testing.T) {
	input := " id , Name ,amount,flag\n001,Alice,1.50,true\n2, Bob ,,FALSE\n\n3,NULL,N/A,x\n"

	tbl, err := Read("people.csv", strings.NewReader(input), 0)
	require.NoError(t, err)

	assert.Equal(t, "people.csv", tbl.Name)
	assert.Equal(t, []string{"id", "Name", "amount", "flag"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())

	first := tbl.Rows[0]
	assert.Equal(t, core.String("001"), first.Get("id"))
	assert.Equal(t, core.Float(1.5), first.Get("amount"))
	assert.Equal(t, core.Bool(true), first.Get("flag"))

	second := tbl.Rows[1]
	assert.Equal(t, core.Int(2), second.Get("id"))
	assert.Equal(t, core.String(" Bob "), second.Get("Name"))
	assert.True(t, second.Get("amount").IsNull())

	third := tbl.Rows[2]
	assert.True(t, third.Get("Name").IsNull())
	assert.True(t, third.Get("amount").IsNull())
}

func TestRead_TabDelimited(t *testing.T) {
	input := "code\tqty\nA1\t3\nB2\t4\n"

	tbl, err := Read("stock.txt", strings.NewReader(input), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "qty"}, tbl.Columns)
	assert.Equal(t, core.Int(4), tbl.Rows[1].Get("qty"))
}

func TestRead_HeaderCleanup(t *testing.T) {
	input := "id,,name,name,=\"ref\",id\n1,2,3,4,5,6\n"

	tbl, err := Read("h.csv", strings.NewReader(input), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Unnamed: 1", "name", "name.1", "ref", "id.1"}, tbl.Columns)
}

func TestRead_RaggedRows(t *testing.T) {
	input := "a,b\n1\n2,3,4\n"

	tbl, err := Read("r.csv", strings.NewReader(input), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "Unnamed: 2"}, tbl.Columns)
	assert.True(t, tbl.Rows[0].Get("b").IsNull())
	assert.Equal(t, core.Int(4), tbl.Rows[1].Get("Unnamed: 2"))
}

func TestRead_FormulaWrappedCell(t *testing.T) {
	input := "id\n=\"00123\"\n"

	tbl, err := Read("f.csv", strings.NewReader(input), 0)
	require.NoError(t, err)
	assert.Equal(t, core.String("00123"), tbl.Rows[0].Get("id"))
}

func TestRead_Encodings(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("id,city\n1,Zoë\n"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "utf-8", input: []byte("id,city\n1,Zoë\n"), want: "Zoë"},
		{name: "utf-8 with bom", input: append([]byte{0xEF, 0xBB, 0xBF}, "id,city\n1,Zoë\n"...), want: "Zoë"},
		{name: "utf-16 with bom", input: utf16, want: "Zoë"},
		{name: "windows-1252", input: []byte("id,city\n1,Caf\xe9\n"), want: "Café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Read("enc.csv", bytes.NewReader(tt.input), 0)
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "city"}, tbl.Columns)
			assert.Equal(t, tt.want, tbl.Rows[0].Get("city").String())
		})
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		input    string
		maxSize  int64
		sentinel error
		code     string
	}{
		{name: "blank file", file: "a.csv", input: "  \n", sentinel: ErrEmptyFile, code: "FILE005"},
		{name: "header only", file: "a.csv", input: "id,name\n", sentinel: ErrEmptyFile, code: "FILE005"},
		{name: "too large", file: "a.csv", input: "id\n1\n2\n", maxSize: 4, sentinel: ErrFileTooLarge, code: "FILE001"},
		{name: "bad workbook", file: "a.xlsx", input: "not a zip", sentinel: ErrInvalidSpreadsheet, code: "FILE006"},
		{name: "bad extension", file: "a.pdf", input: "x", sentinel: ErrUnsupportedFormat, code: "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.file, strings.NewReader(tt.input), tt.maxSize)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, tt.code, core.MapError(err).Code)
		})
	}
}

func TestWrite_CSV(t *testing.T) {
	tbl, err := core.NewTable("out", []string{"id", "v"}, []core.Row{
		{"id": core.Int(1), "v": core.String("a,b")},
		{"id": core.Int(2), "v": core.Null()},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl, FormatCSV))
	assert.Equal(t, "id,v\n1,\"a,b\"\n2,\n", buf.String())
}

func TestXLSX_RoundTrip(t *testing.T) {
	tbl, err := core.NewTable("out", []string{"id", "code", "price", "ok"}, []core.Row{
		{"id": core.Int(64356145), "code": core.String("001"), "price": core.Float(2.5), "ok": core.Bool(true)},
		{"id": core.Int(2), "code": core.Null(), "price": core.Float(3), "ok": core.Bool(false)},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl, FormatXLSX))

	back, err := ReadBytes("out.xlsx", FormatXLSX, buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, tbl.Columns, back.Columns)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, core.Int(64356145), back.Rows[0].Get("id"))
	assert.Equal(t, core.String("001"), back.Rows[0].Get("code"))
	assert.Equal(t, core.Float(2.5), back.Rows[0].Get("price"))
	assert.Equal(t, core.Bool(true), back.Rows[0].Get("ok"))
	assert.Equal(t, core.Bool(false), back.Rows[1].Get("ok"))
	assert.True(t, back.Rows[1].Get("code").IsNull())
	assert.Equal(t, core.Normalize(core.Int(3)), core.Normalize(back.Rows[1].Get("price")))
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in         string
		wantPath   string
		wantFormat Format
	}{
		{in: "merged.csv", wantPath: "merged.csv", wantFormat: FormatCSV},
		{in: "merged.XLSX", wantPath: "merged.XLSX", wantFormat: FormatXLSX},
		{in: "merged", wantPath: "merged.xlsx", wantFormat: FormatXLSX},
		{in: "merged.ods", wantPath: "merged.ods.xlsx", wantFormat: FormatXLSX},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			path, format := OutputPath(tt.in)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(src, []byte("id,name\n1,Alice\n"), 0o644))

	tbl, err := ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "in.csv", tbl.Name)

	written, err := WriteFile(filepath.Join(dir, "out"), tbl)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.xlsx"), written)

	back, err := ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, back.Columns)
	assert.Equal(t, "Alice", back.Rows[0].Get("name").String())
}
