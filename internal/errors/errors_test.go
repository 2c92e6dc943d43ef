package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	app_errors "github.com/docchat/cli/internal/errors"
)

func TestValidationf(t *testing.T) {
	err := app_errors.Validationf("Please select a file first.")

	assert.Equal(t, "Please select a file first.", err.Error())
	assert.True(t, errors.Is(err, app_errors.ErrValidation))
	assert.True(t, app_errors.IsValidation(err))

	wrapped := fmt.Errorf("submit: %w", err)
	assert.True(t, app_errors.IsValidation(wrapped))
}

func TestIsValidation_OtherErrors(t *testing.T) {
	assert.False(t, app_errors.IsValidation(errors.New("boom")))
	assert.False(t, app_errors.IsValidation(nil))
}
