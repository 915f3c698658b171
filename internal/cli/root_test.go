package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_PATH", t.TempDir())

	cmd := RootCmd()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNormalize_Args(t *testing.T) {
	out, err := execute(t, "", "normalize",
		"Merhaba Dünya, 2022 yılında Python 4.0 sürümü çıktı mı?",
		"doğduğun günün aq")
	require.NoError(t, err)

	assert.Equal(t,
		"merhaba dunya iki bin yirmi iki yilinda python kırk surumu cikti mi\n"+
			"dogdugun gunun amina koyayim\n", out)
}

func TestNormalize_Stdin(t *testing.T) {
	out, err := execute(t, "Selam aq\n\nGörüşürüz 3\n", "normalize")
	require.NoError(t, err)

	assert.Equal(t, "selam amina koyayim\n\ngorusuruz üç\n", out, "blank lines keep their place")
}

func TestNormalize_StdinMinLengthUsesUntrimmedLine(t *testing.T) {
	out, err := execute(t, "bir\n\n  ab  \n", "normalize", "--json", "--min-len", "5")
	require.NoError(t, err)

	assert.Equal(t,
		`{"index":0,"text":"","filtered":true}`+"\n"+
			`{"index":1,"text":"","filtered":true}`+"\n"+
			`{"index":2,"text":"ab"}`+"\n", out)
}

func TestNormalize_FlagsOverridePreset(t *testing.T) {
	out, err := execute(t, "", "normalize", "--tr-chars=false", "Görüşürüz!")
	require.NoError(t, err)
	assert.Equal(t, "görüşürüz\n", out)

	out, err = execute(t, "", "normalize", "--preset", "minimal", "--punct=false", "Merhaba, Dünya!")
	require.NoError(t, err)
	assert.Contains(t, out, ",")
}

func TestNormalize_JSONWithFilter(t *testing.T) {
	out, err := execute(t, "ab\nMerhaba\n", "normalize", "--json", "--min-len", "5")
	require.NoError(t, err)

	assert.Equal(t,
		`{"index":0,"text":"","filtered":true}`+"\n"+
			`{"index":1,"text":"merhaba"}`+"\n", out)
}

func TestNormalize_FailedItemsReturnError(t *testing.T) {
	out, err := execute(t, "", "normalize", "tamam", "bozuk \xff metin")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "1 of 2 texts failed")
	assert.Equal(t, "tamam\n\n", out)
}

func TestNormalize_InvalidOptions(t *testing.T) {
	_, err := execute(t, "", "normalize", "--preset", "turbo", "x")
	assert.ErrorContains(t, err, "preset 'turbo' not found")

	_, err = execute(t, "", "normalize", "--min-len", "-1", "x")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig))
}

func TestRoot_DictionaryLoadFailureAborts(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")

	out, err := execute(t, "", "--dictionary", missing, "normalize", "merhaba")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDictionaryLoad))
	assert.Empty(t, out)
}

func TestRoot_CustomDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"slm": "selam"}`), 0o644))

	out, err := execute(t, "", "--dictionary", path, "normalize", "slm aq")
	require.NoError(t, err)
	assert.Equal(t, "selam aq\n", out)
}

func TestFile_CSVWithDedup(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "comments.csv")
	output := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(input, []byte("id,text\n1,Selam aq\n2,SELAM AQ\n3,Görüşürüz\n"), 0o644))

	out, err := execute(t, "", "file", input, "--dedup", "-o", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		`{"index":0,"text":"selam amina koyayim"}`+"\n"+
			`{"index":2,"text":"gorusuruz"}`+"\n", string(written))
}

func TestFile_ColumnAndFormat(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.dump")
	require.NoError(t, os.WriteFile(input, []byte(`[{"body": "Merhaba!"}, {"body": "Hoşça kal"}]`), 0o644))

	out, err := execute(t, "", "file", input, "--format", "json", "--column", "body")
	require.NoError(t, err)
	assert.Equal(t,
		`{"index":0,"text":"merhaba"}`+"\n"+
			`{"index":1,"text":"hosca kal"}`+"\n", out)

	_, err = execute(t, "", "file", input, "--format", "json", "--column", "text")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadRequest))

	_, err = execute(t, "", "file", input)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "", "presets")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "full")
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "minimal")
	assert.Contains(t, out, "aggressive")
}

func TestCleanup(t *testing.T) {
	out, err := execute(t, "", "cleanup", "--older-than", "1h")
	require.NoError(t, err)
	assert.Equal(t, "removed 0 job directories\n", out)

	_, err = execute(t, "", "cleanup", "--older-than", "0s")
	assert.ErrorContains(t, err, "--older-than must be positive")
}

func TestWorker_InvalidDedupStrategy(t *testing.T) {
	cmd := WorkerCmd(&app{})
	require.NoError(t, cmd.Flags().Set("dedup-strategy", "fuzzy"))

	_, err := dedupStrategy(cmd)
	assert.ErrorContains(t, err, "must be exact or universal")

	require.NoError(t, cmd.Flags().Set("dedup-strategy", "exact"))
	s, err := dedupStrategy(cmd)
	require.NoError(t, err)
	assert.EqualValues(t, "exact", s)
}
