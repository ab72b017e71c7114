package utils

import (
	"regexp"
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)
	otpCodePattern = regexp.MustCompile(`^\d{6}$`)
)

// ValidatePhone E.164 风格的手机号，允许省略 +
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateOTPCode 六位数字验证码
func ValidateOTPCode(code string) bool {
	return otpCodePattern.MatchString(code)
}
