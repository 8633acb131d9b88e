package models

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterStructValidation(tourRules, Tour{})
	return v
}

func tourRules(sl validator.StructLevel) {
	t := sl.Current().Interface().(Tour)
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		sl.ReportError(*t.PriceDiscount, "priceDiscount", "PriceDiscount", "ltfield", "price")
	}
}

// Validate checks a model against its struct tags. The error, when not nil,
// is a validator.ValidationErrors.
func Validate(v any) error {
	return validate.Struct(v)
}
