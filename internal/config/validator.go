package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"VoicePay/pkg/recipient"
)

func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("evm_address", func(fl validator.FieldLevel) bool {
		return recipient.IsAddress(fl.Field().String())
	})

	return v
}
