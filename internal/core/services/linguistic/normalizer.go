// Package linguistic holds the language-level string operations the
// preprocessing pipeline delegates to. Every operation is a pure
// string -> string function and safe for concurrent use.
package linguistic

// Normalizer defines the operations the preprocessing pipeline delegates to
type Normalizer interface {
	RemoveAccentMarks(text string) string
	RemovePunctuation(text string) string
	NormalizeTurkishChars(text string) string
	RemoveNumbers(text string) string
	CollapseWhitespace(text string) string
	RemoveStopwords(text string) string
	Lowercase(text string) string

	// Variants for text whose Turkish letters were already folded
	RemoveFoldedStopwords(text string) string
	LowercaseFolded(text string) string

	// DigitsToWords spells out a token made only of decimal digits
	DigitsToWords(token string) string
}
