package parsers

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelParser parses Excel workbooks (.xlsx, .xlsm)
type ExcelParser struct {
	config *ParserConfig
}

// NewExcelParser creates a new Excel parser
func NewExcelParser(config *ParserConfig) *ExcelParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &ExcelParser{
		config: config,
	}
}

// ParseStream reads one worksheet from r. The first row is the header.
func (p *ExcelParser) ParseStream(ctx context.Context, r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel stream: %w", err)
	}
	defer f.Close()

	sheetName := p.config.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet %s: %w", sheetName, err)
	}
	defer rows.Close()

	result := &ParseResult{
		Records: []Record{},
		Columns: []string{},
		Format:  p.Format(),
	}

	var header []string
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheetName, err)
		}

		if header == nil {
			header = trimHeader(row, p.config.TrimWhitespace)
			result.Columns = header
			continue
		}

		result.TotalRows++
		if p.config.SkipEmptyRows && isEmptyRow(row) {
			result.SkippedRows++
			continue
		}

		result.Records = append(result.Records, rowToRecord(header, row, p.config.TrimWhitespace))
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate sheet %s: %w", sheetName, err)
	}

	return result, nil
}

// Format returns the canonical format name
func (p *ExcelParser) Format() string {
	return FormatXLSX
}

// SupportedFormats returns the file extensions this parser supports
func (p *ExcelParser) SupportedFormats() []string {
	return []string{".xlsx", ".xlsm"}
}
