package preprocessing

import (
	"strings"
	"unicode"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/linguistic"
)

// Step names, in canonical order
const (
	StepMinLengthFilter      = "min_length_filter"
	StepOffensiveContraction = "offensive_contractions"
	StepAccentMarks          = "remove_accent_marks"
	StepPunctuation          = "remove_punctuation"
	StepTurkishChars         = "normalize_turkish_chars"
	StepRemoveNumbers        = "remove_numbers"
	StepCollapseWhitespace   = "collapse_whitespace"
	StepStopwords            = "remove_stopwords"
	StepLowercase            = "lowercase"
	StepNumericText          = "normalize_numeric_text"
)

// ProcessingStep represents a single text transformation function
type ProcessingStep func(string) string

type namedStep struct {
	name  string
	apply ProcessingStep
}

// buildSteps returns the enabled transformation steps in canonical order.
// The short-text filter is not a step: it aborts the plan rather than
// transforming the text.
func buildSteps(opts Options, dict *Dictionary, n linguistic.Normalizer) []namedStep {
	var steps []namedStep

	if opts.ReplaceOffensiveContractions {
		steps = append(steps, namedStep{StepOffensiveContraction, func(text string) string {
			return replaceContractions(text, dict, n)
		}})
	}

	// Linguistic batch, fixed sub-order
	if opts.RemoveAccentMarks {
		steps = append(steps, namedStep{StepAccentMarks, n.RemoveAccentMarks})
	}
	if opts.RemovePunctuation {
		steps = append(steps, namedStep{StepPunctuation, n.RemovePunctuation})
	}
	if opts.NormalizeTurkishChars {
		steps = append(steps, namedStep{StepTurkishChars, n.NormalizeTurkishChars})
	}
	if opts.RemoveNumbers {
		steps = append(steps, namedStep{StepRemoveNumbers, n.RemoveNumbers})
	}
	if opts.CollapseWhitespace {
		steps = append(steps, namedStep{StepCollapseWhitespace, n.CollapseWhitespace})
	}
	// Once folded, casing and stopword lookups work on the ASCII forms
	removeStopwords, lowercase := n.RemoveStopwords, n.Lowercase
	if opts.NormalizeTurkishChars {
		removeStopwords, lowercase = n.RemoveFoldedStopwords, n.LowercaseFolded
	}
	if opts.RemoveStopwords {
		steps = append(steps, namedStep{StepStopwords, removeStopwords})
	}
	if opts.Lowercase {
		steps = append(steps, namedStep{StepLowercase, lowercase})
	}

	if opts.NormalizeNumericText {
		steps = append(steps, namedStep{StepNumericText, func(text string) string {
			return normalizeNumericText(text, n)
		}})
	}

	return steps
}

// replaceContractions lowercases the text, swaps every whitespace-separated
// token found in the dictionary and rejoins with single spaces
func replaceContractions(text string, dict *Dictionary, n linguistic.Normalizer) string {
	words := strings.Fields(n.Lowercase(text))
	for i, word := range words {
		if replacement, ok := dict.Lookup(word); ok {
			words[i] = replacement
		}
	}
	return strings.Join(words, " ")
}

// normalizeNumericText spells out digit-only tokens. Text without any digit
// is returned untouched.
func normalizeNumericText(text string, n linguistic.Normalizer) string {
	if !strings.ContainsFunc(text, unicode.IsDigit) {
		return text
	}

	words := strings.Fields(text)
	for i, word := range words {
		if isDigits(word) {
			words[i] = n.DigitsToWords(word)
		}
	}
	return strings.Join(words, " ")
}

func isDigits(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
