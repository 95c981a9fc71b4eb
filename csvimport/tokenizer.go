// Package csvimport parses, maps and validates exam center spreadsheets, and
// renders exam centers back to CSV and XLSX.
package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyHeader is wrapped by the ParseError returned for a blank header row.
var ErrEmptyHeader = errors.New("header row is empty")

// ParseError is a structural failure that aborts the whole import.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Row maps a header (or canonical field name) to its cell text.
type Row map[string]string

type ParseResult struct {
	Success bool     `json:"success"`
	Headers []string `json:"headers,omitempty"`
	Rows    []Row    `json:"rows,omitempty"`
	Error   error    `json:"-"`
}

// logicalLine is one CSV record, possibly spanning several physical lines.
type logicalLine struct {
	start int
	text  string
}

// ReadCSV reads r fully and parses it.
func ReadCSV(r io.Reader) ParseResult {
	data, err := io.ReadAll(r)
	if err != nil {
		return ParseResult{Error: fmt.Errorf("read csv: %w", err)}
	}
	return ParseCSV(string(data))
}

// ParseCSV tokenizes text into header-keyed rows. Quoted fields may contain
// commas, doubled quotes and newlines. Blank data lines are skipped.
func ParseCSV(text string) ParseResult {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines, err := joinQuotedLines(strings.Split(text, "\n"))
	if err != nil {
		return ParseResult{Error: err}
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0].text) == "" {
		return ParseResult{Error: &ParseError{Line: 1, Msg: ErrEmptyHeader.Error(), Err: ErrEmptyHeader}}
	}
	headers := splitFields(lines[0].text)
	if allBlank(headers) {
		return ParseResult{Error: &ParseError{Line: 1, Msg: ErrEmptyHeader.Error(), Err: ErrEmptyHeader}}
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, l := range lines[1:] {
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		fields := splitFields(l.text)
		if len(fields) != len(headers) {
			return ParseResult{Headers: headers, Error: &ParseError{
				Line: l.start,
				Msg:  fmt.Sprintf("expected %d fields, found %d", len(headers), len(fields)),
			}}
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			row[h] = fields[i]
		}
		rows = append(rows, row)
	}

	return ParseResult{Success: true, Headers: headers, Rows: rows}
}

// joinQuotedLines accumulates physical lines until the running quote count
// is even, so a quoted field may span lines.
func joinQuotedLines(physical []string) ([]logicalLine, error) {
	var (
		out     []logicalLine
		buf     strings.Builder
		start   int
		quotes  int
		pending bool
	)
	for i, line := range physical {
		if pending {
			buf.WriteByte('\n')
		} else {
			start = i + 1
			buf.Reset()
		}
		buf.WriteString(line)
		quotes += strings.Count(line, `"`)
		if quotes%2 == 1 {
			pending = true
			continue
		}
		pending = false
		quotes = 0
		out = append(out, logicalLine{start: start, text: buf.String()})
	}
	if pending {
		return nil, &ParseError{Line: start, Msg: "unclosed quote"}
	}
	return out, nil
}

// splitFields runs the field state machine over one logical line. Unquoted
// fields are trimmed; quoted fields keep their content verbatim.
func splitFields(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
		quoted   bool
	)
	flush := func() {
		v := cur.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		fields = append(fields, v)
		cur.Reset()
		quoted = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = false
			}
		case inQuotes:
			cur.WriteByte(c)
		case c == '"':
			inQuotes = true
			if !quoted && strings.TrimSpace(cur.String()) == "" {
				cur.Reset()
			}
			quoted = true
		case c == ',':
			flush()
		case quoted && (c == ' ' || c == '\t'):
			// whitespace after a closing quote
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return fields
}

func allBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
