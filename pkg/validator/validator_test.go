package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	NationalID string `json:"national_id" validate:"required,nationalid"`
	Phone      string `json:"phone" validate:"required,phone"`
	Email      string `json:"email" validate:"required,email"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(sample{NationalID: "12345", Phone: "abc", Email: "nope"})
	require.Error(t, err)

	details := v.FormatValidationErrors(err)
	assert.Contains(t, details, "national_id")
	assert.Contains(t, details, "phone")
	assert.Contains(t, details, "email")

	assert.NoError(t, v.Validate(sample{NationalID: "1234567890", Phone: "+966 50-123-4567", Email: "a@x.com"}))
}

func TestIsNationalID(t *testing.T) {
	assert.True(t, IsNationalID("1234567890"))
	assert.True(t, IsNationalID("123456789012"))
	assert.False(t, IsNationalID("123456789"))
	assert.False(t, IsNationalID("12345678ab"))
}

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("0501234567"))
	assert.True(t, IsPhone("+966-50 123 4567"))
	assert.False(t, IsPhone("050123"))
	assert.False(t, IsPhone("05012345x7"))
}
