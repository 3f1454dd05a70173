// Package validation checks form and model structs with validator tags
// and reports the first failure as a backend.ValidationError worded for
// the site's visitors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/uphouse/internal/backend"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their form/json name.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
	return validate
}

// labels are the display names of validated fields.
var labels = map[string]string{
	"name":     "姓名",
	"phone":    "電話",
	"email":    "Email",
	"message":  "留言",
	"password": "密碼",
	"slug":     "Slug",
}

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// Struct validates v. The returned error is nil or a
// *backend.ValidationError for the first failing field.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}

	fe := verrs[0]
	return &backend.ValidationError{Field: fe.Field(), Message: message(fe)}
}

func message(fe validator.FieldError) string {
	name := label(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + "為必填欄位"
	case "email":
		return "請輸入有效的 Email"
	case "max":
		return fmt.Sprintf("%s長度不可超過 %s 個字元", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s長度至少需 %s 個字元", name, fe.Param())
	default:
		return name + "格式不正確"
	}
}
