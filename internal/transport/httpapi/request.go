package httpapi

import (
	"fmt"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// DefaultPreset is used when a request names none
const DefaultPreset = "full"

// OptionParams carries the pipeline flags under their public names. Unset
// flags keep the value of the selected preset.
type OptionParams struct {
	Preset          string `json:"preset" form:"preset"`
	TrChars         *bool  `json:"tr_chars" form:"tr_chars"`
	AccMarks        *bool  `json:"acc_marks" form:"acc_marks"`
	Punct           *bool  `json:"punct" form:"punct"`
	Lower           *bool  `json:"lower" form:"lower"`
	Offensive       *bool  `json:"offensive" form:"offensive"`
	NormNumbers     *bool  `json:"norm_numbers" form:"norm_numbers"`
	RemoveSpaces    *bool  `json:"remove_spaces" form:"remove_spaces"`
	RemoveNumbers   *bool  `json:"remove_numbers" form:"remove_numbers"`
	RemoveStopwords *bool  `json:"remove_stopwords" form:"remove_stopwords"`
	MinLen          *int   `json:"min_len" form:"min_len"`
}

// Options resolves the preset and applies the explicit flags on top
func (p OptionParams) Options() (preprocessing.Options, error) {
	name := p.Preset
	if name == "" {
		name = DefaultPreset
	}

	opts, err := preprocessing.Preset(name)
	if err != nil {
		return preprocessing.Options{}, apperrors.BadRequest(fmt.Sprintf("unknown preset: %s", name)).
			WithDetails("available_presets", preprocessing.ListPresets())
	}

	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&opts.NormalizeTurkishChars, p.TrChars)
	set(&opts.RemoveAccentMarks, p.AccMarks)
	set(&opts.RemovePunctuation, p.Punct)
	set(&opts.Lowercase, p.Lower)
	set(&opts.ReplaceOffensiveContractions, p.Offensive)
	set(&opts.NormalizeNumericText, p.NormNumbers)
	set(&opts.CollapseWhitespace, p.RemoveSpaces)
	set(&opts.RemoveNumbers, p.RemoveNumbers)
	set(&opts.RemoveStopwords, p.RemoveStopwords)

	if p.MinLen != nil {
		opts = opts.WithMinLength(*p.MinLen)
	}

	return opts, nil
}

// BatchRequest is the body of POST / and POST /jobs
type BatchRequest struct {
	OptionParams
	Texts []string `json:"texts" binding:"required"`
}

// TextRequest is the body of POST /text
type TextRequest struct {
	OptionParams
	Text *string `json:"text" binding:"required"`
}

// FileJobParams are the form fields of POST /jobs/file besides the file itself
type FileJobParams struct {
	OptionParams
	TextColumn  string `form:"text_column"`
	Deduplicate bool   `form:"deduplicate"`
}
