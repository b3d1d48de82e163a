package core

// parse.go detects the format of an uploaded result file and decodes it into rows.
//
// Dispatch is by file extension:
//
//	.csv          delimited text, first record is the header
//	.xlsx, .xls   spreadsheet, first sheet only, first row is the header
//	anything else spreadsheet decoding as a last resort
//
// The spreadsheet decoder sniffs content rather than trusting the extension:
// OOXML (zip) goes to excelize, legacy BIFF (OLE2) goes to extrame/xls, and
// plain text is read as CSV. The unknown-extension fallback is best effort and
// is logged as such by the pipeline.

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
	"github.com/xuri/excelize/v2"
)

var (
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ParsedRow is a decoded data row and its 1-based position in the file.
type ParsedRow struct {
	Line int
	Row  Row
}

// Table is the decoded content of one uploaded file.
type Table struct {
	Format Format
	Header []string
	Rows   []ParsedRow
	// Fallback is true when the extension was not recognised.
	Fallback bool
}

// DetectFormat picks a decoder from the object name. The second result is
// false when the extension is unknown and spreadsheet decoding is a guess.
func DetectFormat(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, true
	case ".xlsx":
		return FormatXLSX, true
	case ".xls":
		return FormatXLS, true
	default:
		return FormatXLSX, false
	}
}

// ParseRows decodes data according to the object name.
// Any decoding failure is returned wrapped in ErrParse.
func ParseRows(name string, data []byte) (*Table, error) {
	format, known := DetectFormat(name)

	var (
		t   *Table
		err error
	)
	if format == FormatCSV {
		t, err = parseCSV(data)
	} else {
		t, err = parseSpreadsheet(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}
	t.Fallback = !known
	return t, nil
}

// parseCSV decodes delimited text. Every record must have as many fields as the header.
func parseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("�"))
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	t := &Table{Format: FormatCSV, Header: trimHeader(header)}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if isEmptyRecord(record) {
			continue
		}
		line, _ := r.FieldPos(0)
		t.Rows = append(t.Rows, ParsedRow{Line: line, Row: makeRow(t.Header, record)})
	}
	return t, nil
}

// parseSpreadsheet sniffs the content and decodes the first sheet.
func parseSpreadsheet(data []byte) (*Table, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return parseXLSX(data)
	case bytes.HasPrefix(data, ole2Magic):
		return parseXLS(data)
	case len(data) > 0 && utf8.Valid(bytes.TrimPrefix(data, utf8BOM)):
		return parseCSV(data)
	default:
		return nil, errors.New("unrecognized spreadsheet format")
	}
}

func parseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tableFromGrid(FormatXLSX, grid)
}

func parseXLS(data []byte) (t *Table, err error) {
	// extrame/xls panics on some truncated or corrupt workbooks.
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		grid = append(grid, cells)
	}
	return tableFromGrid(FormatXLS, grid)
}

// xlsRow returns row i, or nil when the sheet has no record for it.
// WorkSheet.Row dereferences the missing entry, so absent rows panic.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// tableFromGrid turns sheet rows into a Table. Leading blank rows are skipped,
// the next row is the header, and short rows are padded with "".
func tableFromGrid(format Format, grid [][]string) (*Table, error) {
	start := 0
	for start < len(grid) && isEmptyRecord(grid[start]) {
		start++
	}
	if start == len(grid) {
		return nil, errors.New("empty file: no header row")
	}

	t := &Table{Format: format, Header: trimHeader(grid[start])}
	for i := start + 1; i < len(grid); i++ {
		if isEmptyRecord(grid[i]) {
			continue
		}
		t.Rows = append(t.Rows, ParsedRow{Line: i + 1, Row: makeRow(t.Header, grid[i])})
	}
	return t, nil
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// makeRow maps header names to cells. Blank header cells are dropped and the
// first occurrence of a repeated header wins.
func makeRow(header, record []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, seen := row[name]; seen {
			continue
		}
		if i < len(record) {
			row[name] = record[i]
		} else {
			row[name] = ""
		}
	}
	return row
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
