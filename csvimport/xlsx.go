package csvimport

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Exam Centers"

// ReadXLSX reads the first sheet of a workbook into header-keyed rows, the
// same shape ParseCSV produces. Short rows are padded with blanks.
func ReadXLSX(r io.Reader) ParseResult {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ParseResult{Error: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = "Sheet1"
	}
	data, err := f.GetRows(sheet)
	if err != nil {
		return ParseResult{Error: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(data) == 0 || allBlank(data[0]) {
		return ParseResult{Error: &ParseError{Line: 1, Msg: ErrEmptyHeader.Error(), Err: ErrEmptyHeader}}
	}

	headers := make([]string, len(data[0]))
	for i, h := range data[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(data)-1)
	for i, cells := range data[1:] {
		if allBlank(cells) {
			continue
		}
		if len(cells) > len(headers) && !allBlank(cells[len(headers):]) {
			return ParseResult{Headers: headers, Error: &ParseError{
				Line: i + 2,
				Msg:  fmt.Sprintf("expected %d fields, found %d", len(headers), len(cells)),
			}}
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			if j < len(cells) {
				row[h] = strings.TrimSpace(cells[j])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return ParseResult{Success: true, Headers: headers, Rows: rows}
}

// WriteXLSX renders records as a single-sheet workbook.
func WriteXLSX(records []ExamCenterRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(CanonicalFields))
	for i, h := range CanonicalFields {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := r.Values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf, nil
}
