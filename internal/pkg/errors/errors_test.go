package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST: texts is required", BadRequest("texts is required").Error())

	cause := errors.New("no such file")
	assert.Equal(t,
		"DICTIONARY_LOAD: failed to load substitution dictionary from sw.json - no such file",
		DictionaryLoad(cause, "sw.json").Error())
}

func TestAppError_UnwrapAndDetails(t *testing.T) {
	sentinel := errors.New("min_len must be non-negative")
	err := InvalidConfig(sentinel).WithDetails("field", "min_len")

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "min_len", err.Details["field"])
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestItemFailed(t *testing.T) {
	err := ItemFailed(errors.New("malformed"), 3)

	assert.Equal(t, ErrCodeItemFailed, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, 3, err.Details["index"])
}

func TestGetAppErrorAndHasCode(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", RecordNotFound("job"))

	appErr, ok := GetAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "job not found", appErr.Message)
	assert.True(t, HasCode(wrapped, ErrCodeRecordNotFound))
	assert.False(t, HasCode(wrapped, ErrCodeNotFound))

	_, ok = GetAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, HasCode(nil, ErrCodeInternal))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", BadRequest("x"), http.StatusBadRequest},
		{"conflict", Conflict("x"), http.StatusConflict},
		{"disabled", Disabled("jobs"), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("ctx: %w", UnsupportedFormat(".pdf")), http.StatusBadRequest},
		{"zero status", New(ErrCodeInternal, "x", 0), http.StatusInternalServerError},
		{"plain error", errors.New("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestDisabled(t *testing.T) {
	assert.Equal(t, "jobs is not enabled on this instance", Disabled("jobs").Message)
}
