package preprocessing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

func TestNormalizeBatch_PreservesOrderAndLength(t *testing.T) {
	p := newTestPipeline(t, WithWorkers(4))

	texts := make([]string, 200)
	for i := range texts {
		texts[i] = fmt.Sprintf("Satır %d: Merhaba, Dünya!", i)
	}

	res, err := p.NormalizeBatch(context.Background(), texts, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Items, len(texts))

	for i, item := range res.Items {
		assert.Equal(t, i, item.Index)
		require.NoError(t, item.Err)

		single, err := p.Normalize(texts[i], DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, single, item.Result)
	}

	assert.Equal(t, 200, res.Processed)
	assert.Zero(t, res.Filtered)
	assert.Zero(t, res.Failed)
	assert.Equal(t, "satir iki merhaba dunya", res.Texts()[2])
}

func TestNormalizeBatch_PerItemFailures(t *testing.T) {
	p := newTestPipeline(t, WithMaxTextBytes(32))

	texts := []string{
		"doğduğun günün aq",
		"bozuk \xff metin",
		"ab",
		"bu metin otuz iki baytı kesinlikle geçiyor",
		"Bugün hava 27 dereceydi.",
	}

	res, err := p.NormalizeBatch(context.Background(), texts, DefaultOptions().WithMinLength(3))
	require.NoError(t, err)
	require.Len(t, res.Items, len(texts))

	assert.Equal(t, "dogdugun gunun amina koyayim", res.Items[0].Result.Text)

	assert.ErrorIs(t, res.Items[1].Err, ErrMalformedText)
	assert.True(t, apperrors.HasCode(res.Items[1].Err, apperrors.ErrCodeItemFailed))

	assert.NoError(t, res.Items[2].Err)
	assert.True(t, res.Items[2].Result.Filtered)

	assert.ErrorIs(t, res.Items[3].Err, ErrTextTooLong)

	assert.Equal(t, "bugun hava yirmi yedi dereceydi", res.Items[4].Result.Text)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Filtered)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, []int{1, 3}, res.FailedIndices())
	assert.Equal(t, []string{"dogdugun gunun amina koyayim", "", "", "", "bugun hava yirmi yedi dereceydi"}, res.Texts())
}

func TestNormalizeBatch_ConfigErrorFailsAtomically(t *testing.T) {
	p := newTestPipeline(t)

	res, err := p.NormalizeBatch(context.Background(), []string{"bir", "iki"}, DefaultOptions().WithMinLength(-1))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNegativeMinLength)
}

func TestNormalizeBatch_CancelledContext(t *testing.T) {
	p := newTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.NormalizeBatch(ctx, []string{"bir", "iki", "üç"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Failed)
	for _, item := range res.Items {
		assert.ErrorIs(t, item.Err, context.Canceled)
	}
}

func TestNormalizeBatch_Empty(t *testing.T) {
	p := newTestPipeline(t)

	res, err := p.NormalizeBatch(context.Background(), nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Texts())
	assert.Nil(t, res.FailedIndices())
}
