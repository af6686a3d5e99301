package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than csv, xls and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnreadableFile wraps decoder failures for a supported format.
	ErrUnreadableFile = errors.New("unreadable file")
	// ErrEmptyFile is returned when a file holds no header row.
	ErrEmptyFile = errors.New("file is empty")
)

// SupportedExtensions lists accepted file extensions, lower-case with the dot.
var SupportedExtensions = []string{".csv", ".xls", ".xlsx"}

// blankTokens collapse to Missing when a cell equals one of them after
// trimming and lower-casing.
var blankTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
	"-":    {},
	"–":    {},
	"—":    {},
	"н/д":  {},
}

// utf8BOM is stripped from the start of CSV input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsBlankToken reports whether a raw cell denotes an absent value.
func IsBlankToken(s string) bool {
	_, ok := blankTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// NormalizeExtension lower-cases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsSupportedExtension reports whether ext names a readable format.
func IsSupportedExtension(ext string) bool {
	ext = NormalizeExtension(ext)
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// CheckFileName fails with ErrUnsupportedFormat unless name carries a
// supported extension.
func CheckFileName(name string) error {
	ext := filepath.Ext(name)
	if !IsSupportedExtension(ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// ReadFile opens path and reads it with ReadTable, dispatching on extension.
func ReadFile(path string) (*RawTable, error) {
	if err := CheckFileName(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()
	return ReadTable(f, filepath.Ext(path))
}

// ReadTable decodes r as the format named by ext. The first non-blank row
// is the header; blank rows are dropped and short rows padded with Missing.
func ReadTable(r io.Reader, ext string) (*RawTable, error) {
	ext = NormalizeExtension(ext)
	if !IsSupportedExtension(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var records [][]string
	switch ext {
	case ".csv":
		records, err = parseCSV(data)
	default:
		records, err = parseSpreadsheet(data)
	}
	if err != nil {
		return nil, err
	}

	return buildTable(records)
}

func parseCSV(data []byte) ([][]string, error) {
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return records, nil
}

// detectDelimiter picks the most frequent of comma, semicolon and tab in
// the first line, preferring comma on ties.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// parseSpreadsheet reads the first worksheet. Legacy BIFF .xls workbooks
// cannot be decoded and surface as ErrUnreadableFile.
func parseSpreadsheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadableFile, sheets[0], err)
	}
	return rows, nil
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
			continue
		}
		buf.WriteRune(r)
		data = data[size:]
	}
	return buf.Bytes()
}

func buildTable(records [][]string) (*RawTable, error) {
	start := -1
	for i, rec := range records {
		if !isBlankRecord(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyFile
	}

	columns := normalizeHeader(records[start])
	table := &RawTable{Columns: columns, Rows: make([]Row, 0, len(records)-start-1)}

	for _, rec := range records[start+1:] {
		if isEmptyRecord(rec) {
			continue
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if i >= len(rec) || IsBlankToken(rec[i]) {
				row[col] = Missing
				continue
			}
			row[col] = TextValue(rec[i])
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// normalizeHeader trims and lower-cases header cells. Empty names become
// "unnamed: N" and repeats get ".1", ".2" suffixes.
func normalizeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			name = "unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			candidate := name + "." + strconv.Itoa(n+1)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				seen[name]++
				candidate = name + "." + strconv.Itoa(seen[name])
			}
			seen[candidate] = 0
			name = candidate
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// isEmptyRecord reports whether every cell is empty. Rows of blank tokens
// such as "-" or "nan" are kept so that they are accounted for downstream.
func isEmptyRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if !IsBlankToken(c) {
			return false
		}
	}
	return true
}
