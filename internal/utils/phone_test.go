package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+22890112233", NormalizePhone("+228 90 11 22 33"))
	assert.Equal(t, "+22890112233", NormalizePhone("228-90-11-22-33"))
	assert.Equal(t, "+22890112233", NormalizePhone("+22890112233"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+22890112233"))
	assert.True(t, IsValidPhone("+228 90 11 22 33"))
	assert.False(t, IsValidPhone("not-a-phone"))
	assert.False(t, IsValidPhone(""))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "********2233", MaskPhone("+22890112233"))
	assert.Equal(t, "123", MaskPhone("123"))
}

func TestGenerateOTP(t *testing.T) {
	otp := GenerateOTP()
	assert.Len(t, otp, OTPLength)
	assert.True(t, ValidateOTP(otp))
}

func TestGenerateTrackingNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^KF-\d{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number := GenerateTrackingNumber()
		assert.Regexp(t, pattern, number)
		seen[number] = true
	}
	assert.Greater(t, len(seen), 90, "tracking numbers should rarely collide")
}
