// internal/spreadsheet/spreadsheet.go

// Package spreadsheet turns uploaded tabular files into loosely typed rows and
// renders import templates.
package spreadsheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

type Format string

const byteOrderMark = "\ufeff"

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

var (
	ErrUnsupportedFormat = errors.New("only CSV, XLSX and JSON files are supported")
	ErrNoRows            = errors.New("the file contains no data rows")
)

// Row is one data row keyed by normalized header. Number is the 1-based line
// in the source file, the header being line 1.
type Row struct {
	Number int
	Values map[string]interface{}
}

// Get returns the value for a normalized column name.
func (r Row) Get(column string) (interface{}, bool) {
	v, ok := r.Values[column]
	return v, ok
}

func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", ErrUnsupportedFormat
}

// Parse reads every data row from r. Rows whose cells are all blank are
// dropped but keep their place in the line numbering.
func Parse(r io.Reader, format Format) ([]Row, error) {
	var (
		rows []Row
		err  error
	)

	switch format {
	case FormatCSV:
		rows, err = parseCSV(r)
	case FormatXLSX:
		rows, err = parseXLSX(r)
	case FormatJSON:
		rows, err = parseJSON(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// NormalizeHeader lower-cases a header, strips the required marker and drops
// separators, so "Serial Number *" and "serial_number" both become
// "serialnumber". A leading byte-order mark, as written by Excel's
// "CSV UTF-8" export, is dropped.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), byteOrderMark)
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, "*")
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(h)
}

func parseCSV(r io.Reader) ([]Row, error) {
	records, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	rows := make([]Row, 0, len(records))
	for i, record := range records {
		values := make(map[string]interface{}, len(record))
		for header, value := range record {
			values[NormalizeHeader(header)] = strings.TrimSpace(value)
		}
		if row, ok := newRow(i+2, values); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	// Raw values keep date cells as serial numbers instead of the
	// locale-formatted strings.
	excelRows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, nil
	}

	headers := make([]string, len(excelRows[0]))
	for i, h := range excelRows[0] {
		headers[i] = NormalizeHeader(h)
	}

	rows := make([]Row, 0, len(excelRows)-1)
	for idx, excelRow := range excelRows[1:] {
		values := make(map[string]interface{}, len(headers))
		for i, value := range excelRow {
			if i < len(headers) && headers[i] != "" {
				values[headers[i]] = strings.TrimSpace(value)
			}
		}
		if row, ok := newRow(idx+2, values); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// parseJSON accepts an array of objects, the shape spreadsheet-to-JSON
// converters produce.
func parseJSON(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON rows: %w", err)
	}

	rows := make([]Row, 0, len(records))
	for i, record := range records {
		values := make(map[string]interface{}, len(record))
		for key, value := range record {
			if s, ok := value.(string); ok {
				value = strings.TrimSpace(s)
			}
			values[NormalizeHeader(key)] = value
		}
		if row, ok := newRow(i+2, values); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func newRow(number int, values map[string]interface{}) (Row, bool) {
	for _, v := range values {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if v == nil {
			continue
		}
		return Row{Number: number, Values: values}, true
	}
	return Row{}, false
}

// Column describes one column of an import template.
type Column struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

type Template struct {
	Entity  string   `json:"entity"`
	Version string   `json:"version"`
	Columns []Column `json:"columns"`
}

func (t Template) headers() []string {
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Name
		if col.Required {
			headers[i] += " *"
		}
	}
	return headers
}

func (t Template) examples() []string {
	row := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		row[i] = col.Example
	}
	return row
}

// WriteCSV renders the template header plus one example row.
func (t Template) WriteCSV(w io.Writer) error {
	writer := gocsv.DefaultCSVWriter(w)
	if err := writer.Write(t.headers()); err != nil {
		return err
	}
	if err := writer.Write(t.examples()); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX renders the template as a workbook with required columns
// highlighted.
func (t Template) WriteXLSX(w io.Writer, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	requiredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	headers := t.headers()
	examples := t.examples()
	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, headers[i])
		style := headerStyle
		if col.Required {
			style = requiredStyle
		}
		f.SetCellStyle(sheetName, cell, cell, style)

		example, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, example, examples[i])

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
