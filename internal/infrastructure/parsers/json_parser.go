package parsers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses JSON documents. Accepted shapes are an array of
// objects, an array of strings, or an object with a "texts" array.
type JSONParser struct {
	config *ParserConfig
}

// NewJSONParser creates a new JSON parser
func NewJSONParser(config *ParserConfig) *JSONParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &JSONParser{
		config: config,
	}
}

// ParseStream reads and parses JSON data from r
func (p *JSONParser) ParseStream(ctx context.Context, r io.Reader) (*ParseResult, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	delim, ok := token.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("JSON must be an array or an object with a \"texts\" array")
	}

	var values []interface{}
	switch delim {
	case '[':
		values, err = decodeArray(ctx, decoder)
	case '{':
		values, err = decodeTextsObject(ctx, decoder)
	default:
		err = fmt.Errorf("unexpected JSON delimiter %q", delim)
	}
	if err != nil {
		return nil, err
	}

	acc := newRecordAccumulator(p.config)
	for _, v := range values {
		if err := acc.add(v); err != nil {
			return nil, err
		}
	}

	return acc.result(p.Format()), nil
}

// Format returns the canonical format name
func (p *JSONParser) Format() string {
	return FormatJSON
}

// SupportedFormats returns the file extensions this parser supports
func (p *JSONParser) SupportedFormats() []string {
	return []string{".json"}
}

func decodeArray(ctx context.Context, decoder *json.Decoder) ([]interface{}, error) {
	var values []interface{}
	for decoder.More() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var v interface{}
		if err := decoder.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode JSON element %d: %w", len(values), err)
		}
		values = append(values, v)
	}

	if _, err := decoder.Token(); err != nil {
		return nil, fmt.Errorf("failed to read closing bracket: %w", err)
	}
	return values, nil
}

func decodeTextsObject(ctx context.Context, decoder *json.Decoder) ([]interface{}, error) {
	var values []interface{}
	found := false

	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON key: %w", err)
		}
		key, _ := keyToken.(string)

		if key != "texts" {
			var skip json.RawMessage
			if err := decoder.Decode(&skip); err != nil {
				return nil, fmt.Errorf("failed to skip field %q: %w", key, err)
			}
			continue
		}

		open, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read \"texts\": %w", err)
		}
		if d, ok := open.(json.Delim); !ok || d != '[' {
			return nil, fmt.Errorf("\"texts\" must be an array")
		}
		if values, err = decodeArray(ctx, decoder); err != nil {
			return nil, err
		}
		found = true
	}

	if !found {
		return nil, fmt.Errorf("JSON object has no \"texts\" array")
	}
	return values, nil
}

// recordAccumulator turns decoded JSON values into records and keeps the
// column order of first appearance
type recordAccumulator struct {
	config      *ParserConfig
	records     []Record
	columns     []string
	seen        map[string]bool
	totalRows   int
	skippedRows int
}

func newRecordAccumulator(config *ParserConfig) *recordAccumulator {
	return &recordAccumulator{
		config:  config,
		records: []Record{},
		columns: []string{},
		seen:    make(map[string]bool),
	}
}

func (a *recordAccumulator) add(v interface{}) error {
	a.totalRows++

	var record Record
	switch val := v.(type) {
	case map[string]interface{}:
		record = Record(val)
	case string:
		record = Record{DefaultTextColumn: val}
	case nil:
		record = Record{}
	default:
		return fmt.Errorf("record %d: expected object or string, got %T", a.totalRows, v)
	}

	if a.config.SkipEmptyRows && isEmptyRecord(record) {
		a.skippedRows++
		return nil
	}

	if a.config.TrimWhitespace {
		for k, v := range record {
			if s, ok := v.(string); ok {
				record[k] = trimSpace(s)
			}
		}
	}

	for _, k := range sortedKeys(record) {
		if !a.seen[k] {
			a.seen[k] = true
			a.columns = append(a.columns, k)
		}
	}

	a.records = append(a.records, record)
	return nil
}

func (a *recordAccumulator) result(format string) *ParseResult {
	return &ParseResult{
		Records:     a.records,
		TotalRows:   a.totalRows,
		SkippedRows: a.skippedRows,
		Columns:     a.columns,
		Format:      format,
	}
}
