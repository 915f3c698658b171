package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLParser parses JSON Lines files. Each line is an object or a string.
type JSONLParser struct {
	config *ParserConfig
}

// NewJSONLParser creates a new JSONL parser
func NewJSONLParser(config *ParserConfig) *JSONLParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &JSONLParser{
		config: config,
	}
}

// ParseStream reads and parses JSONL data from r
func (p *JSONLParser) ParseStream(ctx context.Context, r io.Reader) (*ParseResult, error) {
	scanner := newLineScanner(r, p.config.MaxLineBytes)
	acc := newRecordAccumulator(p.config)
	lineNum := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			acc.totalRows++
			acc.skippedRows++
			continue
		}

		decoder := json.NewDecoder(bytes.NewReader(line))
		decoder.UseNumber()

		var v interface{}
		if err := decoder.Decode(&v); err != nil {
			// Skip malformed lines but continue parsing
			acc.totalRows++
			acc.skippedRows++
			continue
		}

		if err := acc.add(v); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL: %w", err)
	}

	return acc.result(p.Format()), nil
}

// Format returns the canonical format name
func (p *JSONLParser) Format() string {
	return FormatJSONL
}

// SupportedFormats returns the file extensions this parser supports
func (p *JSONLParser) SupportedFormats() []string {
	return []string{".jsonl", ".ndjson"}
}

func newLineScanner(r io.Reader, maxLineBytes int) *bufio.Scanner {
	if maxLineBytes <= 0 {
		maxLineBytes = bufio.MaxScanTokenSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}
