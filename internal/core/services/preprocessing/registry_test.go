package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

func TestPreset(t *testing.T) {
	full, err := Preset("full")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), full)

	alias, err := Preset("default")
	require.NoError(t, err)
	assert.Equal(t, full, alias)

	minimal, err := Preset("minimal")
	require.NoError(t, err)
	assert.True(t, minimal.RemovePunctuation)
	assert.False(t, minimal.ReplaceOffensiveContractions)

	_, err = Preset("turbo")
	assert.ErrorContains(t, err, "preset 'turbo' not found")
}

func TestPreset_ReturnsCopies(t *testing.T) {
	opts, err := Preset("full")
	require.NoError(t, err)
	opts.Lowercase = false

	again, err := Preset("full")
	require.NoError(t, err)
	assert.True(t, again.Lowercase)
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"aggressive", "full", "minimal"}, ListPresets())

	info := ListPresetsWithMetadata()
	require.Len(t, info, 3)
	assert.Equal(t, "full", info[1].Name)
	assert.Equal(t, []string{"default"}, info[1].Aliases)
	assert.Empty(t, info[0].Aliases)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.NoError(t, DefaultOptions().WithMinLength(0).Validate())
	assert.NoError(t, DefaultOptions().WithMinLength(20).Validate())

	err := DefaultOptions().WithMinLength(-5).Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeMinLength)

	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidConfig, appErr.Code)
	assert.Equal(t, "min_len", appErr.Details["field"])
}

func TestOptions_Fingerprint(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.RemoveStopwords = true
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	assert.Equal(t, a.Fingerprint(), a.WithMinLength(0).Fingerprint(), "zero and unset both disable the filter")
	assert.NotEqual(t, a.Fingerprint(), a.WithMinLength(4).Fingerprint())
}
