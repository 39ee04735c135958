package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type registerInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"min=4"`
	Amount   int64  `json:"amount" validate:"gt=0"`
	Internal string `json:"-" validate:"max=1"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()
	UseJSONNames(v)

	err := v.Struct(registerInput{Email: "nope", Password: "ab", Internal: "long"})
	msgs := FormatValidationError(err)

	assert.Contains(t, msgs, "username is required")
	assert.Contains(t, msgs, "email must be a valid email")
	assert.Contains(t, msgs, "password must be at least 4")
	assert.Contains(t, msgs, "amount must be greater than 0")
	assert.Len(t, msgs, 5)
}

func TestFormatValidationError_NotValidation(t *testing.T) {
	assert.Nil(t, FormatValidationError(assert.AnError))
	assert.Nil(t, FormatValidationError(nil))
}
