package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
	"github.com/alejandroruanova/preprocessing-service/internal/transport/httpapi"
)

// optionFlags mirror the HTTP query parameters
var optionFlags = []struct {
	name  string
	usage string
	field func(*preprocessing.Options) *bool
}{
	{"tr-chars", "fold Turkish letters to ASCII", func(o *preprocessing.Options) *bool { return &o.NormalizeTurkishChars }},
	{"acc-marks", "remove accent marks", func(o *preprocessing.Options) *bool { return &o.RemoveAccentMarks }},
	{"punct", "remove punctuation", func(o *preprocessing.Options) *bool { return &o.RemovePunctuation }},
	{"lower", "lowercase the text", func(o *preprocessing.Options) *bool { return &o.Lowercase }},
	{"offensive", "expand offensive contractions", func(o *preprocessing.Options) *bool { return &o.ReplaceOffensiveContractions }},
	{"norm-numbers", "spell out digit-only tokens", func(o *preprocessing.Options) *bool { return &o.NormalizeNumericText }},
	{"remove-spaces", "collapse runs of whitespace", func(o *preprocessing.Options) *bool { return &o.CollapseWhitespace }},
	{"remove-numbers", "delete digits", func(o *preprocessing.Options) *bool { return &o.RemoveNumbers }},
	{"remove-stopwords", "drop Turkish stopwords", func(o *preprocessing.Options) *bool { return &o.RemoveStopwords }},
}

func addOptionFlags(fs *pflag.FlagSet) {
	fs.String("preset", httpapi.DefaultPreset, "option preset: "+strings.Join(preprocessing.ListPresets(), ", "))
	for _, f := range optionFlags {
		fs.Bool(f.name, false, f.usage+" (unset keeps the preset value)")
	}
	fs.Int("min-len", 0, "mark texts shorter than this many characters as filtered")
}

// optionsFromFlags starts from the preset and applies the flags that were set
func optionsFromFlags(fs *pflag.FlagSet) (preprocessing.Options, error) {
	name, err := fs.GetString("preset")
	if err != nil {
		return preprocessing.Options{}, err
	}
	opts, err := preprocessing.Preset(name)
	if err != nil {
		return preprocessing.Options{}, err
	}

	for _, f := range optionFlags {
		if !fs.Changed(f.name) {
			continue
		}
		v, err := fs.GetBool(f.name)
		if err != nil {
			return preprocessing.Options{}, err
		}
		*f.field(&opts) = v
	}

	if fs.Changed("min-len") {
		n, err := fs.GetInt("min-len")
		if err != nil {
			return preprocessing.Options{}, err
		}
		opts = opts.WithMinLength(n)
	}

	return opts, opts.Validate()
}
