package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var netIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// RegisterValidators 向 gin 的校验引擎注册自定义 tag
// netid: 校园账号，字母数字开头，最长 64 位
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("netid", func(fl validator.FieldLevel) bool {
		return netIDPattern.MatchString(fl.Field().String())
	})
}
