package preprocessing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// Configuration errors, wrapped in an INVALID_CONFIG AppError by Validate
var (
	ErrNegativeMinLength = errors.New("min_len must be non-negative")
	ErrInvalidOptions    = errors.New("options failed validation")
)

var validate = validator.New()

// Options selects which pipeline stages run. Each flag toggles exactly one stage.
//
// Defaults (DefaultOptions) follow the original preprocessing API: every stage
// on except RemoveNumbers and RemoveStopwords, and no length filter.
type Options struct {
	NormalizeTurkishChars        bool `json:"tr_chars"`
	RemoveAccentMarks            bool `json:"acc_marks"`
	RemovePunctuation            bool `json:"punct"`
	RemoveNumbers                bool `json:"remove_numbers"`
	CollapseWhitespace           bool `json:"remove_spaces"`
	RemoveStopwords              bool `json:"remove_stopwords"`
	Lowercase                    bool `json:"lower"`
	ReplaceOffensiveContractions bool `json:"offensive"`
	NormalizeNumericText         bool `json:"norm_numbers"`

	// MinLength filters out texts shorter than this many characters. Nil or 0 disables the filter.
	MinLength *int `json:"min_len,omitempty" validate:"omitempty,gte=0"`
}

// DefaultOptions returns the documented default configuration
func DefaultOptions() Options {
	return Options{
		NormalizeTurkishChars:        true,
		RemoveAccentMarks:            true,
		RemovePunctuation:            true,
		RemoveNumbers:                false,
		CollapseWhitespace:           true,
		RemoveStopwords:              false,
		Lowercase:                    true,
		ReplaceOffensiveContractions: true,
		NormalizeNumericText:         true,
	}
}

// WithMinLength returns a copy of o with the short-text filter set to n
func (o Options) WithMinLength(n int) Options {
	o.MinLength = &n
	return o
}

// Clone returns a copy that shares no memory with o
func (o Options) Clone() Options {
	if o.MinLength != nil {
		n := *o.MinLength
		o.MinLength = &n
	}
	return o
}

// Validate checks the options before any stage runs
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.InvalidConfig(fmt.Errorf("%w: %v", ErrInvalidOptions, err))
	}

	for _, fe := range fieldErrs {
		if fe.Field() == "MinLength" {
			return apperrors.InvalidConfig(ErrNegativeMinLength).
				WithDetails("field", "min_len").
				WithDetails("value", fe.Value())
		}
	}

	return apperrors.InvalidConfig(fmt.Errorf("%w: %v", ErrInvalidOptions, fieldErrs))
}

// minLength returns the active filter threshold, 0 meaning disabled
func (o Options) minLength() int {
	if o.MinLength == nil {
		return 0
	}
	return *o.MinLength
}

// Fingerprint is a stable identifier of the option set, used in cache keys
func (o Options) Fingerprint() string {
	flags := []bool{
		o.ReplaceOffensiveContractions,
		o.RemoveAccentMarks,
		o.RemovePunctuation,
		o.NormalizeTurkishChars,
		o.RemoveNumbers,
		o.CollapseWhitespace,
		o.RemoveStopwords,
		o.Lowercase,
		o.NormalizeNumericText,
	}

	var b strings.Builder
	for _, f := range flags {
		if f {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(o.minLength()))

	return b.String()
}
