// Package tabular decodes uploaded spreadsheets into header-keyed rows.
//
// Supported formats are CSV (comma or semicolon separated), XLSX and legacy
// XLS. Only the first worksheet of a workbook is read. The first non-blank
// row is the header row; blank data rows are dropped.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are not CSV, XLSX or XLS.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrTooManyRows is returned when a file exceeds the configured row limit.
	ErrTooManyRows = errors.New("too many rows")

	// ErrUnreadable is returned when a file of a known format cannot be parsed.
	ErrUnreadable = errors.New("unreadable spreadsheet")
)

// Format identifies a spreadsheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Table is a decoded worksheet.
type Table struct {
	Format  Format          `json:"format"`
	Headers []string        `json:"headers"`
	Rows    []engine.RawRow `json:"-"`
	// Lines holds the 1-based source line or worksheet row of each entry in
	// Rows.
	Lines []int `json:"-"`
}

// Options bounds decoding work.
type Options struct {
	// MaxRows caps the number of data rows; zero means unlimited.
	MaxRows int
}

// DetectFormat picks a decoder from the file's magic bytes, falling back to
// its extension.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
}

// Decode reads a whole spreadsheet and returns its first worksheet as rows
// keyed by header text.
func Decode(r io.Reader, filename string, opts Options) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}

	var (
		records [][]string
		lines   []int
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data)
	case FormatXLS:
		records, err = readXLS(data, opts.MaxRows)
	default:
		records, lines, err = readCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", format, ErrUnreadable, err)
	}

	t, err := buildTable(records, lines, opts)
	if err != nil {
		return nil, err
	}
	t.Format = format
	return t, nil
}

// readCSV returns the records and the line each record starts on. Blank
// lines and quoted line breaks make the two differ.
func readCSV(data []byte) ([][]string, []int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("?"))
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return records, lines, nil
}

// sniffDelimiter chooses ';' when the first line has more semicolons than
// commas, as produced by spreadsheet exports in comma-decimal locales.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("no worksheet found")
	}
	return f.GetRows(sheet)
}

func readXLS(data []byte, maxRows int) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("no worksheet found")
	}
	limit := 100000
	if maxRows > 0 {
		// Header plus one row past the limit so the caller can detect overflow.
		limit = maxRows + 2
	}
	return wb.ReadAllCells(limit), nil
}

// buildTable finds the header row and keys every later non-blank row by it.
// lines gives the source line of each record; when nil, record i is taken
// to be on line i+1 as in a worksheet.
func buildTable(records [][]string, lines []int, opts Options) (*Table, error) {
	start := -1
	for i, rec := range records {
		if !isBlank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, 0, len(records[start]))
	positions := make([]int, 0, len(records[start]))
	seen := make(map[string]bool, len(records[start]))
	for i, h := range records[start] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || seen[strings.ToLower(h)] {
			continue
		}
		seen[strings.ToLower(h)] = true
		headers = append(headers, h)
		positions = append(positions, i)
	}

	t := &Table{Headers: headers}
	for i := start + 1; i < len(records); i++ {
		rec := records[i]
		if isBlank(rec) {
			continue
		}
		if opts.MaxRows > 0 && len(t.Rows) >= opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, opts.MaxRows)
		}
		row := make(engine.RawRow, len(headers))
		for j, h := range headers {
			if p := positions[j]; p < len(rec) {
				row[h] = rec[p]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, lineOf(lines, i))
	}
	return t, nil
}

func lineOf(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 1
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
