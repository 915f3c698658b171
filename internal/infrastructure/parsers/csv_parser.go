package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSVParser parses comma, semicolon or tab separated files. The separator
// is detected from the header line.
type CSVParser struct {
	config *ParserConfig
}

// NewCSVParser creates a new CSV parser
func NewCSVParser(config *ParserConfig) *CSVParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &CSVParser{
		config: config,
	}
}

// ParseStream reads and parses CSV data from r
func (p *CSVParser) ParseStream(ctx context.Context, r io.Reader) (*ParseResult, error) {
	br := bufio.NewReader(r)

	comma, err := sniffDelimiter(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	csvReader := csv.NewReader(br)
	csvReader.Comma = comma
	csvReader.TrimLeadingSpace = p.config.TrimWhitespace
	csvReader.FieldsPerRecord = -1 // Allow variable number of fields per record
	csvReader.LazyQuotes = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	header = trimHeader(header, p.config.TrimWhitespace)

	var records []Record
	totalRows := 0
	skippedRows := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		totalRows++
		if err != nil {
			// Skip malformed rows but continue parsing
			skippedRows++
			continue
		}

		if p.config.SkipEmptyRows && isEmptyRow(row) {
			skippedRows++
			continue
		}

		records = append(records, rowToRecord(header, row, p.config.TrimWhitespace))
	}

	return &ParseResult{
		Records:     records,
		TotalRows:   totalRows,
		SkippedRows: skippedRows,
		Columns:     header,
		Format:      p.Format(),
	}, nil
}

// Format returns the canonical format name
func (p *CSVParser) Format() string {
	return FormatCSV
}

// SupportedFormats returns the file extensions this parser supports
func (p *CSVParser) SupportedFormats() []string {
	return []string{".csv", ".tsv"}
}

// sniffDelimiter picks the most frequent of , ; and tab in the first line
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	line, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, err
	}
	if len(line) == 0 {
		return 0, io.EOF
	}
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best, nil
}
