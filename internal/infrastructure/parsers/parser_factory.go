package parsers

import (
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// ParserFactory creates the appropriate parser based on file extension
type ParserFactory struct {
	config  *ParserConfig
	parsers map[string]FileParser
}

// NewParserFactory creates a new parser factory with all built-in parsers
func NewParserFactory(config *ParserConfig) *ParserFactory {
	if config == nil {
		config = DefaultParserConfig()
	}

	factory := &ParserFactory{
		config:  config,
		parsers: make(map[string]FileParser),
	}

	// Register built-in parsers
	factory.RegisterParser(NewCSVParser(config))
	factory.RegisterParser(NewExcelParser(config))
	factory.RegisterParser(NewJSONParser(config))
	factory.RegisterParser(NewJSONLParser(config))
	factory.RegisterParser(NewTextParser(config))

	return factory
}

// RegisterParser registers a parser under its extensions and format name
func (f *ParserFactory) RegisterParser(parser FileParser) {
	for _, ext := range parser.SupportedFormats() {
		f.parsers[normalizeExt(ext)] = parser
	}
	f.parsers[normalizeExt(parser.Format())] = parser
}

// ForFormat returns the parser for an extension or format name such as
// ".csv" or "jsonl"
func (f *ParserFactory) ForFormat(format string) (FileParser, error) {
	parser, exists := f.parsers[normalizeExt(format)]
	if !exists {
		return nil, apperrors.UnsupportedFormat(format).
			WithDetails("supported_formats", f.SupportedFormats())
	}
	return parser, nil
}

// ForFile returns the parser matching the extension of filename
func (f *ParserFactory) ForFile(filename string) (FileParser, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, apperrors.UnsupportedFormat(filename).
			WithDetails("supported_formats", f.SupportedFormats())
	}
	return f.ForFormat(ext)
}

// SupportedFormats returns all supported file extensions, sorted
func (f *ParserFactory) SupportedFormats() []string {
	formats := make([]string, 0, len(f.parsers))
	for ext := range f.parsers {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

// IsSupported checks if a file extension is supported
func (f *ParserFactory) IsSupported(fileExt string) bool {
	_, exists := f.parsers[normalizeExt(fileExt)]
	return exists
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
