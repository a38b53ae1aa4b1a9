package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// в ошибках поля называются по json-тегу
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// FieldErrors возвращает нарушенные правила по полям, например {"lat": "max=90"}.
// Для ошибок не из валидатора возвращает nil.
func FieldErrors(err error) map[string]interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	details := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	return details
}
