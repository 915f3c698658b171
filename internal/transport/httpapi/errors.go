package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error *apperrors.AppError `json:"error"`
}

// abortWithError writes err as an ErrorBody and stops the handler chain.
// Errors that are not AppErrors become 500s without leaking their text.
func abortWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.GetAppError(err)
	if !ok {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			appErr = apperrors.New(apperrors.ErrCodeBadRequest, "request body too large", http.StatusRequestEntityTooLarge).
				WithDetails("limit_bytes", maxBytesErr.Limit)
		} else {
			appErr = apperrors.InternalWrap(err, "internal server error")
		}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.StatusCode(appErr), ErrorBody{Error: appErr})
}

// notFound answers unknown routes with the standard error body
func notFound(c *gin.Context) {
	abortWithError(c, apperrors.NotFound("route not found").WithDetails("path", c.Request.URL.Path))
}

// bindError reports a request that could not be decoded
func bindError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		abortWithError(c, err)
		return
	}
	abortWithError(c, apperrors.BadRequest("invalid request").WithDetails("reason", err.Error()))
}
