package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := Clone(ErrNotFound, "student not found")
	got := FromError(err)
	assert.Equal(t, "NOT_FOUND", got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "student not found", got.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	raw := errors.New("boom")
	got := FromError(raw)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.ErrorIs(t, got, raw)
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	_ = Clone(ErrValidation, "amount must be positive")
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("record payment: %w", Clone(ErrPaymentExceedsBalance, "balance is 40.00"))
	assert.True(t, HasCode(err, ErrPaymentExceedsBalance))
	assert.False(t, HasCode(err, ErrValidation))
	assert.False(t, HasCode(errors.New("boom"), ErrInternal))
	assert.False(t, HasCode(err, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, FromError(err).Status)
}
