package linguistic

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkishLetters keep their diacritics through accent-mark removal
var turkishLetters = map[rune]bool{
	'ç': true, 'Ç': true,
	'ğ': true, 'Ğ': true,
	'ı': true, 'İ': true,
	'ö': true, 'Ö': true,
	'ş': true, 'Ş': true,
	'ü': true, 'Ü': true,
}

var turkishFolding = map[rune]rune{
	'ç': 'c', 'Ç': 'C',
	'ğ': 'g', 'Ğ': 'G',
	'ı': 'i', 'İ': 'I',
	'ö': 'o', 'Ö': 'O',
	'ş': 's', 'Ş': 'S',
	'ü': 'u', 'Ü': 'U',
}

// Digit runs with inner thousand/decimal separators: 4.0, 1,5, 10.000.000
var numberPattern = regexp.MustCompile(`\p{Nd}+(?:[.,]\p{Nd}+)*`)

// ambiguousFolds are folded stopword forms that are also common content
// words (şu -> su, "water"), so folded text keeps them
var ambiguousFolds = map[string]bool{
	"su": true,
}

// Turkish implements Normalizer for Turkish text
type Turkish struct {
	stopwords       map[string]struct{}
	foldedStopwords map[string]struct{}
}

// NewTurkish creates a Turkish normalizer with the built-in stopword list
func NewTurkish() *Turkish {
	return NewTurkishWithStopwords(DefaultStopwords())
}

// NewTurkishWithStopwords creates a Turkish normalizer with a custom stopword list.
// Words are matched after Turkish lowercasing. Folded forms are kept apart
// and only consulted for text that went through NormalizeTurkishChars.
func NewTurkishWithStopwords(words []string) *Turkish {
	t := &Turkish{
		stopwords:       make(map[string]struct{}, len(words)),
		foldedStopwords: make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		lower := t.Lowercase(strings.TrimSpace(w))
		if lower == "" {
			continue
		}
		t.stopwords[lower] = struct{}{}

		folded := t.NormalizeTurkishChars(lower)
		if folded != lower && ambiguousFolds[folded] {
			continue
		}
		t.foldedStopwords[folded] = struct{}{}
	}
	return t
}

// RemoveAccentMarks strips combining marks from non-Turkish letters (â -> a, é -> e)
func (t *Turkish) RemoveAccentMarks(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	// Compose first so decomposed Turkish letters (u + U+0308) are seen whole.
	for _, r := range norm.NFC.String(text) {
		if r < unicode.MaxASCII || turkishLetters[r] {
			result.WriteRune(r)
			continue
		}
		result.WriteString(stripMarks(string(r)))
	}

	return result.String()
}

// stripMarks decomposes s and drops nonspacing marks
func stripMarks(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}

// RemovePunctuation drops punctuation and symbol characters
func (t *Turkish) RemovePunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, text)
}

// NormalizeTurkishChars folds Turkish-specific letters to their ASCII counterparts
func (t *Turkish) NormalizeTurkishChars(text string) string {
	return strings.Map(func(r rune) rune {
		if folded, ok := turkishFolding[r]; ok {
			return folded
		}
		return r
	}, text)
}

// RemoveNumbers deletes digit sequences, including decimals like 4.0
func (t *Turkish) RemoveNumbers(text string) string {
	return numberPattern.ReplaceAllString(text, "")
}

// CollapseWhitespace replaces runs of whitespace with one space and trims the ends
func (t *Turkish) CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// RemoveStopwords drops stopword tokens and joins the rest with single spaces
func (t *Turkish) RemoveStopwords(text string) string {
	return removeWords(text, t.stopwords, t.Lowercase)
}

// RemoveFoldedStopwords is RemoveStopwords for text already passed through
// NormalizeTurkishChars
func (t *Turkish) RemoveFoldedStopwords(text string) string {
	return removeWords(text, t.foldedStopwords, t.LowercaseFolded)
}

func removeWords(text string, set map[string]struct{}, lower func(string) string) string {
	words := strings.Fields(text)
	kept := make([]string, 0, len(words))

	for _, word := range words {
		if _, stop := set[lower(word)]; stop {
			continue
		}
		kept = append(kept, word)
	}

	return strings.Join(kept, " ")
}

// Lowercase applies Turkish casing rules (I -> ı, İ -> i)
func (t *Turkish) Lowercase(text string) string {
	// Casers carry state, so one is built per call.
	return cases.Lower(language.Turkish).String(text)
}

// LowercaseFolded lowercases folded text with root casing, so I -> i and
// no Turkish letter is reintroduced
func (t *Turkish) LowercaseFolded(text string) string {
	return cases.Lower(language.Und).String(text)
}
