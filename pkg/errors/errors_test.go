package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInputError(t *testing.T) {
	err := NewInputError("body too long")

	assert.Equal(t, ErrCodeInput, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Contains(t, err.Error(), "body too long")
	assert.True(t, IsInput(err))
	assert.False(t, IsAccess(err))
}

func TestNewAccessError(t *testing.T) {
	err := NewAccessError("not a member")

	assert.Equal(t, ErrCodeAccess, err.Code)
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus)
	assert.True(t, IsAccess(err))
	assert.False(t, IsInput(err))
}

func TestWrapInput(t *testing.T) {
	cause := errors.New("channel not found")
	err := WrapInput(cause, "invalid channel")

	assert.True(t, IsInput(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by")
}

func TestGetAppErrorThroughChain(t *testing.T) {
	inner := NewAccessError("forbidden")
	wrapped := fmt.Errorf("handler: %w", inner)

	got := GetAppError(wrapped)
	assert.NotNil(t, got)
	assert.Equal(t, ErrCodeAccess, got.Code)

	assert.Nil(t, GetAppError(errors.New("plain")))
	assert.Nil(t, GetAppError(nil))
}
