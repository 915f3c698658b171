package parsers

import (
	"context"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// DefaultTextColumn is the column name given to bare strings in JSON, JSONL
// and plain text inputs
const DefaultTextColumn = "text"

// Canonical format names
const (
	FormatCSV   = "csv"
	FormatXLSX  = "xlsx"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatText  = "txt"
)

// Record represents a single data record as a map
type Record map[string]interface{}

// ParseResult contains the parsed rows and parsing statistics
type ParseResult struct {
	Records     []Record
	TotalRows   int
	SkippedRows int
	Columns     []string
	Format      string
}

// FileParser is the interface all parsers must implement
type FileParser interface {
	// ParseStream reads and parses a dataset from r
	ParseStream(ctx context.Context, r io.Reader) (*ParseResult, error)

	// Format returns the canonical format name, e.g. "csv"
	Format() string

	// SupportedFormats returns the file extensions this parser supports
	SupportedFormats() []string
}

// ParserConfig holds configuration for all parsers
type ParserConfig struct {
	// SkipEmptyRows determines if empty rows should be skipped. Plain text
	// ignores it and keeps every line.
	SkipEmptyRows bool

	// TrimWhitespace determines if cell values and column names should be trimmed.
	// Plain text ignores it.
	TrimWhitespace bool

	// MaxLineBytes bounds a single line of line-oriented formats
	MaxLineBytes int

	// Sheet selects the Excel worksheet. Empty means the first sheet.
	Sheet string
}

// DefaultParserConfig returns sensible defaults
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		SkipEmptyRows:  true,
		TrimWhitespace: true,
		MaxLineBytes:   1 << 20,
	}
}

// ExtractTexts returns the value of column for every record, in record
// order. Missing or null cells yield an empty string; non-string cells are
// formatted with fmt.
func ExtractTexts(result *ParseResult, column string) ([]string, error) {
	found := false
	for _, c := range result.Columns {
		if c == column {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.BadRequest(fmt.Sprintf("column %q not found", column)).
			WithDetails("available_columns", result.Columns)
	}

	texts := make([]string, len(result.Records))
	for i, record := range result.Records {
		switch v := record[column].(type) {
		case nil:
		case string:
			texts[i] = v
		default:
			texts[i] = fmt.Sprint(v)
		}
	}

	return texts, nil
}

// isEmptyRow checks if a row contains only empty strings
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// rowToRecord maps cells onto column names, filling missing cells with ""
func rowToRecord(header, row []string, trim bool) Record {
	record := make(Record, len(header))
	for i, col := range header {
		value := ""
		if i < len(row) {
			value = row[i]
			if trim {
				value = strings.TrimSpace(value)
			}
		}
		record[col] = value
	}
	return record
}

func trimHeader(header []string, trim bool) []string {
	out := make([]string, len(header))
	for i, h := range header {
		// Excel and Windows editors prepend a BOM to the first cell
		h = strings.TrimPrefix(h, "\ufeff")
		if trim {
			h = strings.TrimSpace(h)
		}
		out[i] = h
	}
	return out
}
