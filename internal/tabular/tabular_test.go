package tabular

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecode_CSV(t *testing.T) {
	input := "\xEF\xBB\xBFItem,Qty,Unit\nTomatoes,5,kg\n,,\ntomato,3,kg\n"

	table, err := Decode(strings.NewReader(input), "stock.csv", Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if table.Format != FormatCSV {
		t.Errorf("Format = %q, want csv", table.Format)
	}
	if strings.Join(table.Headers, "|") != "Item|Qty|Unit" {
		t.Errorf("Headers = %v, want [Item Qty Unit]", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 (blank row dropped)", len(table.Rows))
	}
	if table.Rows[1]["Item"] != "tomato" || table.Rows[1]["Qty"] != "3" {
		t.Errorf("Rows[1] = %v, want tomato/3", table.Rows[1])
	}
}

func TestDecode_CSVSemicolonAndShortRows(t *testing.T) {
	input := "Name;Quantity;Unit;Price\nSand;2;m3\n"

	table, err := Decode(strings.NewReader(input), "stock.csv", Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(table.Headers) != 4 {
		t.Fatalf("Headers = %v, want 4 columns", table.Headers)
	}
	row := table.Rows[0]
	if row["Unit"] != "m3" {
		t.Errorf("Unit = %q, want m3", row["Unit"])
	}
	if v, ok := row["Price"]; !ok || v != "" {
		t.Errorf("Price = %q (present %v), want empty and present", v, ok)
	}
}

func TestDecode_SourceLines(t *testing.T) {
	input := "\n\nName,Qty,Unit\nSand,1,m3\n\n,,\n\"Gravel\nfine\",2,m3\nCement,3,bag\n"

	table, err := Decode(strings.NewReader(input), "stock.csv", Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := []int{4, 7, 9}
	if len(table.Lines) != len(want) {
		t.Fatalf("Lines = %v, want %v", table.Lines, want)
	}
	for i := range want {
		if table.Lines[i] != want[i] {
			t.Errorf("Lines[%d] = %d, want %d", i, table.Lines[i], want[i])
		}
	}
}

func TestDecode_InvalidUTF8Sanitized(t *testing.T) {
	input := []byte("Name,Qty,Unit\nCaf\xff,1,pc\n")

	table, err := Decode(bytes.NewReader(input), "x.csv", Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := table.Rows[0]["Name"]; got != "Caf?" {
		t.Errorf("Name = %q, want %q", got, "Caf?")
	}
}

func TestDecode_HeaderAfterBlankLinesAndDuplicateHeaders(t *testing.T) {
	input := "\n,,\nName,Qty,Unit,name\nSand,1,m3,ignored\n"

	table, err := Decode(strings.NewReader(input), "x.csv", Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(table.Headers) != 3 {
		t.Errorf("Headers = %v, want duplicate dropped", table.Headers)
	}
	if table.Rows[0]["Name"] != "Sand" {
		t.Errorf("Name = %q, want Sand", table.Rows[0]["Name"])
	}
}

func TestDecode_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Item Name", "Quantity", "UOM", "Unit Price"},
		{"Cement Bags", 30, "bag", 250.5},
		{"Gravel", 4, "m3", 1200},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	// Magic bytes win over a misleading extension.
	table, err := Decode(bytes.NewReader(buf.Bytes()), "upload.bin", Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if table.Format != FormatXLSX {
		t.Errorf("Format = %q, want xlsx", table.Format)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}
	if table.Rows[0]["Item Name"] != "Cement Bags" || table.Rows[0]["Quantity"] != "30" {
		t.Errorf("Rows[0] = %v", table.Rows[0])
	}
	if table.Rows[1]["Unit Price"] != "1200" {
		t.Errorf("Unit Price = %q, want 1200", table.Rows[1]["Unit Price"])
	}
	if len(table.Lines) != 2 || table.Lines[0] != 2 || table.Lines[1] != 3 {
		t.Errorf("Lines = %v, want [2 3]", table.Lines)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		filename string
		opts     Options
		wantErr  error
	}{
		{"empty", "", "x.csv", Options{}, ErrEmptyFile},
		{"whitespace only", "  \n ", "x.csv", Options{}, ErrEmptyFile},
		{"blank cells only", ",,\n,,\n", "x.csv", Options{}, ErrEmptyFile},
		{"unsupported", "hello", "notes.pdf", Options{}, ErrUnsupportedFormat},
		{"too many rows", "Name,Qty,Unit\na,1,pc\nb,1,pc\nc,1,pc\n", "x.csv", Options{MaxRows: 2}, ErrTooManyRows},
		{"corrupt workbook", "PK\x03\x04not really a zip", "stock.xlsx", Options{}, ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.filename, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		data     []byte
		want     Format
	}{
		{"a.csv", []byte("x"), FormatCSV},
		{"a.XLSX", []byte("x"), FormatXLSX},
		{"a.xls", []byte("x"), FormatXLS},
		{"a.csv", []byte("PK\x03\x04rest"), FormatXLSX},
		{"a.csv", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0}, FormatXLS},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.filename, tt.data)
		if err != nil {
			t.Errorf("DetectFormat(%q) error = %v", tt.filename, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
