package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataUnavailable_WrapsAndIdentifies(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("load towns: %w", DataUnavailable("towns", cause))

	assert.True(t, IsDataUnavailable(err))
	assert.ErrorIs(t, err, cause)

	appErr := From(err)
	assert.Equal(t, CodeDataUnavailable, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
	assert.Equal(t, "towns", appErr.Dataset)
	assert.Contains(t, appErr.Error(), "[towns]")
}

func TestFrom_UnknownErrorIsInternal(t *testing.T) {
	appErr := From(errors.New("boom"))
	assert.Equal(t, CodeInternalError, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.False(t, IsDataUnavailable(appErr))
	assert.Nil(t, From(nil))
	assert.Nil(t, Wrap(nil, CodeInternalError, "x", 500))
}
