package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Comment string `validate:"max=3"`
}

func TestFieldNamesUsesJSONTags(t *testing.T) {
	err := New().Struct(sample{Email: "nope", Comment: "toolong"})
	assert.Equal(t, []string{"name", "email", "Comment"}, FieldNames(err))
}

func TestFormatValidationErrors(t *testing.T) {
	err := New().Struct(sample{Email: "nope", Comment: "toolong"})
	assert.Equal(t, []string{
		"Name: is required",
		"Email: invalid email format",
		"Comment: must be at most 3 characters",
	}, FormatValidationErrors(err))
}

func TestFormatNonValidationError(t *testing.T) {
	assert.Equal(t, []string{"boom"}, FormatValidationErrors(errors.New("boom")))
	assert.Nil(t, FieldNames(errors.New("boom")))
}
