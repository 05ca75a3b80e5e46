package importer

// decode.go parses raw delimited text into ordered row maps.
//
// Input arrives as pasted or uploaded text, so the decoder tolerates the
// usual artifacts: invalid UTF-8 bytes, a BOM, Excel formula prefixes,
// ragged rows and lazy quoting.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DecodeError reports input that cannot be parsed under the configured
// delimiter (e.g. an unterminated quote).
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode input: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Row is one decoded input record. Values maps column name to the raw cell;
// Index is the zero-based data row position.
type Row struct {
	Index  int
	Values map[string]string
}

// Decode parses text into rows. With hasHeader the first record names the
// columns; otherwise columns are named by ordinal ("1", "2", ...). Fully
// empty records are dropped.
func Decode(text string, delimiter rune, hasHeader bool) ([]Row, error) {
	data := sanitizeUTF8([]byte(text))
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	var columns []string
	if hasHeader {
		if len(records) == 0 {
			return nil, nil
		}
		columns = make([]string, len(records[0]))
		for i, h := range records[0] {
			columns[i] = cleanCell(h)
		}
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if isEmptyRecord(record) {
			continue
		}
		values := make(map[string]string, len(record))
		for i, cell := range record {
			name := ""
			if i < len(columns) {
				name = columns[i]
			}
			if name == "" {
				name = strconv.Itoa(i + 1)
			}
			values[name] = cleanCell(cell)
		}
		rows = append(rows, Row{Index: len(rows), Values: values})
	}
	return rows, nil
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// cleanCell strips whitespace, Excel formula prefixes (="value") and
// surrounding quotes from a cell.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
