package parsers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// TextParser reads plain text with one document per line. Lines are kept
// verbatim, blank ones included, so record i is line i of the input.
type TextParser struct {
	config *ParserConfig
}

// NewTextParser creates a new plain text parser
func NewTextParser(config *ParserConfig) *TextParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &TextParser{
		config: config,
	}
}

// ParseStream reads lines from r into records with a single "text" column
func (p *TextParser) ParseStream(ctx context.Context, r io.Reader) (*ParseResult, error) {
	scanner := newLineScanner(r, p.config.MaxLineBytes)
	result := &ParseResult{
		Records: []Record{},
		Columns: []string{DefaultTextColumn},
		Format:  p.Format(),
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if result.TotalRows == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		result.TotalRows++
		result.Records = append(result.Records, Record{DefaultTextColumn: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading text: %w", err)
	}

	return result, nil
}

// Format returns the canonical format name
func (p *TextParser) Format() string {
	return FormatText
}

// SupportedFormats returns the file extensions this parser supports
func (p *TextParser) SupportedFormats() []string {
	return []string{".txt"}
}

func isEmptyRecord(record Record) bool {
	for _, v := range record {
		switch val := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(val) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

func sortedKeys(record Record) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
