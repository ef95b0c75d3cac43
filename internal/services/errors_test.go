package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := storageError(cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "internal storage error", err.Error())

	var svcErr *Error
	assert.True(t, errors.As(err, &svcErr))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0, 20))
	assert.Equal(t, 1, clampLimit(-5, 20))
	assert.Equal(t, 100, clampLimit(500, 20))
	assert.Equal(t, 42, clampLimit(42, 20))
}
