package preprocessing

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// EmbeddedDictionarySource names the built-in dictionary in logs and errors
const EmbeddedDictionarySource = "embedded:static/offensive_contractions.json"

//go:embed static/offensive_contractions.json
var staticFS embed.FS

// Dictionary errors
var (
	ErrEmptyKey     = errors.New("dictionary contains an empty key")
	ErrDuplicateKey = errors.New("dictionary contains a duplicate key")
	ErrNotAnObject  = errors.New("dictionary must be a JSON object of string to string")
)

// Dictionary maps lowercase contracted tokens to their full form.
// It is immutable once built and safe for concurrent use without locking.
type Dictionary struct {
	entries     map[string]string
	fingerprint string
}

// ParseDictionary reads a JSON object of token -> replacement.
// Keys are lowercased with Turkish casing rules; keys that collide after
// lowercasing are rejected.
func ParseDictionary(r io.Reader) (*Dictionary, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotAnObject
	}

	lower := cases.Lower(language.Turkish)
	entries := make(map[string]string)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read dictionary key: %w", err)
		}
		rawKey, ok := tok.(string)
		if !ok {
			return nil, ErrNotAnObject
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: value for %q: %v", ErrNotAnObject, rawKey, err)
		}

		key := lower.String(strings.TrimSpace(rawKey))
		if key == "" {
			return nil, ErrEmptyKey
		}
		if _, exists := entries[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		entries[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	return &Dictionary{
		entries:     entries,
		fingerprint: fingerprintEntries(entries),
	}, nil
}

// NewDictionary builds a dictionary from an in-memory map, applying the same
// rules as ParseDictionary
func NewDictionary(entries map[string]string) (*Dictionary, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return ParseDictionary(bytes.NewReader(raw))
}

// LoadDictionary loads the dictionary from path, or the embedded default
// when path is empty. Any failure is returned as a DICTIONARY_LOAD error.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		return DefaultDictionary()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.DictionaryLoad(err, path)
	}
	defer f.Close()

	dict, err := ParseDictionary(f)
	if err != nil {
		return nil, apperrors.DictionaryLoad(err, path)
	}

	return dict, nil
}

// DefaultDictionary parses the dictionary compiled into the binary
func DefaultDictionary() (*Dictionary, error) {
	raw, err := staticFS.ReadFile("static/offensive_contractions.json")
	if err != nil {
		return nil, apperrors.DictionaryLoad(err, EmbeddedDictionarySource)
	}

	dict, err := ParseDictionary(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.DictionaryLoad(err, EmbeddedDictionarySource)
	}

	return dict, nil
}

// Lookup returns the replacement for an already-lowercased token
func (d *Dictionary) Lookup(token string) (string, bool) {
	if d == nil {
		return "", false
	}
	v, ok := d.entries[token]
	return v, ok
}

// Len returns the number of entries
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Keys returns the sorted keys
func (d *Dictionary) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fingerprint identifies the dictionary content. Two dictionaries with the
// same entries share a fingerprint.
func (d *Dictionary) Fingerprint() string {
	if d == nil {
		return ""
	}
	return d.fingerprint
}

func fingerprintEntries(entries map[string]string) string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(entries[k]))
		h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}
