package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// IsOTP 是一个自定义的校验函数，用于验证 6 位数字验证码格式
func IsOTP(fl validator.FieldLevel) bool {
	otp := fl.Field().String()
	re := regexp.MustCompile(`^\d{6}$`)
	return re.MatchString(otp)
}
