package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	for phone, want := range map[string]bool{
		"+14155550100": true,
		"14155550100":  true,
		"+0123456789":  false,
		"555-0100":     false,
		"":             false,
	} {
		assert.Equal(t, want, ValidatePhone(phone), phone)
	}
}

func TestValidateOTPCode(t *testing.T) {
	assert.True(t, ValidateOTPCode("123456"))
	assert.False(t, ValidateOTPCode("12345"))
	assert.False(t, ValidateOTPCode("12345a"))
}

func TestHashPhone(t *testing.T) {
	h := HashPhone("+14155550100")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashPhone("+14155550100"))
	assert.NotEqual(t, h, HashPhone("+14155550101"))
}
