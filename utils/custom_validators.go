package utils

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding" // Gin 框架的数据绑定包
	"github.com/go-playground/validator/v10"

	"github.com/Xushengqwer/identity_link/models/enums"
)

// sortExprRegex 排序表达式："字段" 或 "字段:ASC|DESC"，方向大小写不敏感
var sortExprRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]{0,63}(:(?i:asc|desc))?$`)

// ValidateSortExpr 校验排序表达式格式
func ValidateSortExpr(fl validator.FieldLevel) bool {
	return sortExprRegex.MatchString(fl.Field().String())
}

// ValidateLinkDestination 校验删除目标端 (provider / local / 空)
func ValidateLinkDestination(fl validator.FieldLevel) bool {
	return enums.DeleteDestination(fl.Field().String()).Valid()
}

// RegisterCustomValidators 将自定义校验函数注册到 Gin 的 validator 引擎中。
// 之后即可在 DTO 的 struct tag 中使用，例如 `binding:"sortexpr"`。
func RegisterCustomValidators() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validations := map[string]validator.Func{
			"sortexpr":        ValidateSortExpr,
			"linkdestination": ValidateLinkDestination,
		}
		for tag, validation := range validations {
			if err := v.RegisterValidation(tag, validation); err != nil {
				return fmt.Errorf("注册验证器 '%s' 失败: %w", tag, err)
			}
		}
	}
	return nil
}
