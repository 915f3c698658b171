package preprocessing

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/linguistic"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

func newTestPipeline(t *testing.T, opts ...PipelineOption) *Pipeline {
	t.Helper()

	dict, err := NewDictionary(map[string]string{
		"aq":  "amına koyayım",
		"amk": "amına koyayım",
		"sg":  "siktir git",
	})
	require.NoError(t, err)

	p, err := NewPipeline(dict, linguistic.NewTurkish(), opts...)
	require.NoError(t, err)
	return p
}

func onlyOffensive() Options {
	return Options{ReplaceOffensiveContractions: true}
}

func TestPipeline_Normalize(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		name     string
		input    string
		opts     Options
		expected string
	}{
		{
			name:     "defaults on the original service example",
			input:    "Merhaba Dünya, 2022 yılında Python 4.0 sürümü çıktı mı?",
			opts:     DefaultOptions(),
			expected: "merhaba dunya iki bin yirmi iki yilinda python kırk surumu cikti mi",
		},
		{
			name:     "offensive contraction only",
			input:    "doğduğun günün aq",
			opts:     onlyOffensive(),
			expected: "doğduğun günün amına koyayım",
		},
		{
			name:     "offensive contraction with linguistic stages",
			input:    "doğduğun günün aq",
			opts:     DefaultOptions(),
			expected: "dogdugun gunun amina koyayim",
		},
		{
			name:     "substitution is case-insensitive",
			input:    "Ne diyon AMK",
			opts:     onlyOffensive(),
			expected: "ne diyon amına koyayım",
		},
		{
			name:     "numeric text only",
			input:    "Bugün hava 27 dereceydi.",
			opts:     Options{NormalizeNumericText: true},
			expected: "Bugün hava yirmi yedi dereceydi.",
		},
		{
			name:     "numeric text with defaults",
			input:    "Bugün hava 27 dereceydi.",
			opts:     DefaultOptions(),
			expected: "bugun hava yirmi yedi dereceydi",
		},
		{
			name:     "mixed tokens are left alone",
			input:    "saat 10da buluşalım",
			opts:     Options{NormalizeNumericText: true},
			expected: "saat 10da buluşalım",
		},
		{
			name:     "number removal runs before numeric normalization",
			input:    "2022 yılında 3 kez",
			opts:     Options{RemoveNumbers: true, CollapseWhitespace: true, NormalizeNumericText: true},
			expected: "yılında kez",
		},
		{
			name:     "stopword removal",
			input:    "Bu film çok güzel ve eğlenceli",
			opts:     Options{Lowercase: true, RemoveStopwords: true},
			expected: "film güzel eğlenceli",
		},
		{
			name:     "every stage disabled returns input unchanged",
			input:    "  Aynen ÖYLE, 42!  ",
			opts:     Options{},
			expected: "  Aynen ÖYLE, 42!  ",
		},
		{
			name:     "empty input",
			input:    "",
			opts:     DefaultOptions(),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Normalize(tt.input, tt.opts)
			require.NoError(t, err)
			assert.False(t, res.Filtered)
			assert.Equal(t, tt.expected, res.Text)
		})
	}
}

func TestPipeline_ShortTextFilter(t *testing.T) {
	p := newTestPipeline(t)

	tests := []struct {
		name     string
		input    string
		minLen   int
		filtered bool
		expected string
	}{
		{name: "shorter than minimum", input: "abc", minLen: 5, filtered: true},
		{name: "exactly the minimum", input: "abcde", minLen: 5, expected: "abcde"},
		{name: "zero disables the filter", input: "a", minLen: 0, expected: "a"},
		{name: "length counts characters not bytes", input: "çğü", minLen: 4, filtered: true},
		{name: "multibyte text at the minimum", input: "çğü", minLen: 3, expected: "cgu"},
		{
			name:     "evaluated on the original length",
			input:    "  a   b  ",
			minLen:   5,
			expected: "a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{
				NormalizeTurkishChars: true,
				CollapseWhitespace:    true,
			}.WithMinLength(tt.minLen)

			res, err := p.Normalize(tt.input, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.filtered, res.Filtered)
			assert.Equal(t, tt.expected, res.Text)
		})
	}
}

func TestPipeline_FilterSkipsEveryStage(t *testing.T) {
	dict, err := NewDictionary(map[string]string{"aq": "amına koyayım"})
	require.NoError(t, err)

	n := new(mockNormalizer)
	p, err := NewPipeline(dict, n)
	require.NoError(t, err)

	res, err := p.Normalize("aq", DefaultOptions().WithMinLength(10))
	require.NoError(t, err)

	assert.True(t, res.Filtered)
	assert.Empty(t, res.Text)
	n.AssertNotCalled(t, "Lowercase", mock.Anything)
	n.AssertNotCalled(t, "RemovePunctuation", mock.Anything)
}

func TestPipeline_DisabledSubStagesAreNotCalled(t *testing.T) {
	dict, err := NewDictionary(map[string]string{})
	require.NoError(t, err)

	n := new(mockNormalizer)
	n.On("RemovePunctuation", "Selam, dünya!").Return("Selam dünya").Once()
	n.On("Lowercase", "Selam dünya").Return("selam dünya").Once()

	p, err := NewPipeline(dict, n)
	require.NoError(t, err)

	res, err := p.Normalize("Selam, dünya!", Options{RemovePunctuation: true, Lowercase: true})
	require.NoError(t, err)

	assert.Equal(t, "selam dünya", res.Text)
	n.AssertExpectations(t)
	n.AssertNotCalled(t, "RemoveAccentMarks", mock.Anything)
	n.AssertNotCalled(t, "NormalizeTurkishChars", mock.Anything)
	n.AssertNotCalled(t, "CollapseWhitespace", mock.Anything)
	n.AssertNotCalled(t, "RemoveStopwords", mock.Anything)
	n.AssertNotCalled(t, "RemoveNumbers", mock.Anything)
}

func TestPipeline_FoldedTextUsesFoldedVariants(t *testing.T) {
	dict, err := NewDictionary(map[string]string{})
	require.NoError(t, err)

	n := new(mockNormalizer)
	n.On("NormalizeTurkishChars", "IŞIK şu").Return("ISIK su").Once()
	n.On("RemoveFoldedStopwords", "ISIK su").Return("ISIK su").Once()
	n.On("LowercaseFolded", "ISIK su").Return("isik su").Once()

	p, err := NewPipeline(dict, n)
	require.NoError(t, err)

	res, err := p.Normalize("IŞIK şu", Options{NormalizeTurkishChars: true, RemoveStopwords: true, Lowercase: true})
	require.NoError(t, err)

	assert.Equal(t, "isik su", res.Text)
	n.AssertExpectations(t)
	n.AssertNotCalled(t, "RemoveStopwords", mock.Anything)
	n.AssertNotCalled(t, "Lowercase", mock.Anything)
}

func TestPipeline_FoldedOutputHasNoTurkishLetters(t *testing.T) {
	p := newTestPipeline(t)

	opts := DefaultOptions()
	opts.ReplaceOffensiveContractions = false
	opts.NormalizeNumericText = false

	for input, expected := range map[string]string{
		"KIZ":      "kiz",
		"IŞIK":     "isik",
		"Istanbul": "istanbul",
		"İZMİR":    "izmir",
	} {
		res, err := p.Normalize(input, opts)
		require.NoError(t, err)
		assert.Equal(t, expected, res.Text, "input %q", input)
	}
}

func TestPipeline_NumericStageSkipsTextWithoutDigits(t *testing.T) {
	dict, err := NewDictionary(map[string]string{})
	require.NoError(t, err)

	n := new(mockNormalizer)
	p, err := NewPipeline(dict, n)
	require.NoError(t, err)

	res, err := p.Normalize("rakam   yok", Options{NormalizeNumericText: true})
	require.NoError(t, err)

	assert.Equal(t, "rakam   yok", res.Text, "whitespace is untouched when there are no digits")
	n.AssertNotCalled(t, "DigitsToWords", mock.Anything)
}

func TestPipeline_DisabledSubstitutionKeepsDictionaryTokens(t *testing.T) {
	p := newTestPipeline(t)

	opts := DefaultOptions()
	opts.ReplaceOffensiveContractions = false

	for _, input := range []string{"doğduğun günün aq", "SG lan", "amk ya"} {
		res, err := p.Normalize(input, opts)
		require.NoError(t, err)

		assert.NotContains(t, res.Text, "amına")
		assert.NotContains(t, res.Text, "siktir")
	}

	res, err := p.Normalize("doğduğun günün aq", opts)
	require.NoError(t, err)
	assert.Equal(t, "dogdugun gunun aq", res.Text)
}

func TestPipeline_Idempotence(t *testing.T) {
	p := newTestPipeline(t)

	inputs := []string{
		"Merhaba Dünya, 2022 yılında!",
		"Çok güzel bir gün; hâlâ sıcak.",
		"  Ankara'da   hava   27 derece  ",
		"Ve bu film çok güzel mi?",
		"KIZ",
		"IŞIK",
		"Istanbul",
		"",
	}

	base := DefaultOptions()
	base.ReplaceOffensiveContractions = false
	base.NormalizeNumericText = false

	aggressive, err := Preset("aggressive")
	require.NoError(t, err)
	aggressive.ReplaceOffensiveContractions = false
	aggressive.NormalizeNumericText = false

	for _, opts := range []Options{base, aggressive} {
		for _, input := range inputs {
			first, err := p.Normalize(input, opts)
			require.NoError(t, err)

			second, err := p.Normalize(first.Text, opts)
			require.NoError(t, err)

			assert.Equal(t, first.Text, second.Text, "input %q", input)
		}
	}
}

func TestPipeline_CompileRejectsNegativeMinLength(t *testing.T) {
	p := newTestPipeline(t)

	plan, err := p.Compile(DefaultOptions().WithMinLength(-1))
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, ErrNegativeMinLength)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig))

	_, err = p.Normalize("metin", DefaultOptions().WithMinLength(-3))
	assert.ErrorIs(t, err, ErrNegativeMinLength)
}

func TestPipeline_RunRejectsBadInput(t *testing.T) {
	p := newTestPipeline(t, WithMaxTextBytes(8))

	_, err := p.Normalize("ok\xffok", DefaultOptions())
	assert.ErrorIs(t, err, ErrMalformedText)

	_, err = p.Normalize("bu metin fazla uzun", DefaultOptions())
	assert.ErrorIs(t, err, ErrTextTooLong)

	res, err := p.Normalize("kısa", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "kisa", res.Text)
}

func TestPlan_Steps(t *testing.T) {
	p := newTestPipeline(t)

	plan, err := p.Compile(DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		StepOffensiveContraction,
		StepAccentMarks,
		StepPunctuation,
		StepTurkishChars,
		StepCollapseWhitespace,
		StepLowercase,
		StepNumericText,
	}, plan.Steps())

	aggressive, err := Preset("aggressive")
	require.NoError(t, err)
	plan, err = p.Compile(aggressive.WithMinLength(3))
	require.NoError(t, err)
	assert.Equal(t, []string{
		StepMinLengthFilter,
		StepOffensiveContraction,
		StepAccentMarks,
		StepPunctuation,
		StepTurkishChars,
		StepRemoveNumbers,
		StepCollapseWhitespace,
		StepStopwords,
		StepLowercase,
		StepNumericText,
	}, plan.Steps())

	plan, err = p.Compile(Options{})
	require.NoError(t, err)
	assert.Empty(t, plan.Steps())
}

func TestPlan_OwnsItsOptions(t *testing.T) {
	p := newTestPipeline(t)

	opts := Options{}.WithMinLength(5)
	plan, err := p.Compile(opts)
	require.NoError(t, err)

	*opts.MinLength = 1

	res, err := plan.Run("abc")
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Equal(t, 5, *plan.Options().MinLength)
}

func TestPlan_ConcurrentRuns(t *testing.T) {
	p := newTestPipeline(t)

	plan, err := p.Compile(DefaultOptions())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := plan.Run(fmt.Sprintf("Sayı %d, AQ", i))
			if err == nil {
				results[i] = res.Text
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, "sayi yirmi yedi amina koyayim", results[27])
	assert.False(t, strings.Contains(strings.Join(results, " "), "aq"))
	assert.Equal(t, "sayi sıfır amina koyayim", results[0])
}

func TestNewPipeline_RequiresCollaborators(t *testing.T) {
	_, err := NewPipeline(nil, linguistic.NewTurkish())
	assert.Error(t, err)

	dict, err := NewDictionary(map[string]string{})
	require.NoError(t, err)
	_, err = NewPipeline(dict, nil)
	assert.Error(t, err)
}

// mockNormalizer is a testify mock of linguistic.Normalizer
type mockNormalizer struct {
	mock.Mock
}

func (m *mockNormalizer) RemoveAccentMarks(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) RemovePunctuation(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) NormalizeTurkishChars(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) RemoveNumbers(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) CollapseWhitespace(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) RemoveStopwords(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) Lowercase(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) RemoveFoldedStopwords(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) LowercaseFolded(text string) string {
	return m.Called(text).String(0)
}

func (m *mockNormalizer) DigitsToWords(token string) string {
	return m.Called(token).String(0)
}
