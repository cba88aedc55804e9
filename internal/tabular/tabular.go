// Package tabular reads statement files into dense grids of cells. It knows
// nothing about banks or card issuers.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	enc "github.com/MrJamesThe3rd/heshbon/internal/encoding"
)

// Format is a supported statement file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf returns the format implied by a file name's extension, or "" when
// the file is not a statement file.
func FormatOf(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	}

	return ""
}

// Sheet is one grid of cells. CSV files produce a single sheet with an empty name.
type Sheet struct {
	Name string
	Rows [][]string
}

// Read parses data according to the format of fileName.
func Read(fileName string, data []byte) ([]Sheet, error) {
	switch FormatOf(fileName) {
	case FormatCSV:
		rows, err := ReadCSV(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}

		return []Sheet{{Rows: rows}}, nil
	case FormatXLSX:
		return ReadXLSX(bytes.NewReader(data))
	}

	return nil, fmt.Errorf("unsupported file type: %s", fileName)
}

// ReadCSV decodes a CSV export into rows. The input encoding is sniffed, CRLF and
// CR line endings become LF, and quoted fields may hold commas, newlines and ""
// escapes. The delimiter is the most frequent of comma, semicolon and tab in the
// first lines.
func ReadCSV(r io.Reader) ([][]string, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return dense(rows), nil
}

// ReadXLSX reads every worksheet of a workbook. Cell values are raw, so dates
// arrive as Excel serial numbers and amounts as plain numerics.
func ReadXLSX(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make([]Sheet, 0, len(names))

	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		sheets = append(sheets, Sheet{Name: name, Rows: dense(rows)})
	}

	return sheets, nil
}

// dense pads every row to the widest row so column gaps survive.
func dense(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}

	return rows
}

func sniffDelimiter(text string) rune {
	lines := strings.SplitN(text, "\n", 11)
	if len(lines) > 10 {
		lines = lines[:10]
	}

	best, bestCount := ',', 0

	for _, d := range []rune{',', ';', '\t'} {
		count := 0

		for _, line := range lines {
			count += countOutsideQuotes(line, d)
		}

		if count > bestCount {
			best, bestCount = d, count
		}
	}

	return best
}

func countOutsideQuotes(line string, d rune) int {
	count := 0
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == d && !inQuotes:
			count++
		}
	}

	return count
}
