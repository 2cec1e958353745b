package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iho/gofinance/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their form names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return domain.ValidateSymbol(domain.NormalizeSymbol(fl.Field().String())) == nil
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return domain.ValidateUsername(fl.Field().String()) == nil
	})

	return v
}

// Validate checks a form and translates the first failure into a domain
// error with a human-readable reason.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	fe := verrs[0]
	field := strings.ReplaceAll(fe.Field(), "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: must provide %s", domain.ErrValidation, field)
	case "max":
		return fmt.Errorf("%w: %s is too long", domain.ErrValidation, field)
	case "eqfield":
		return domain.ErrPasswordMismatch
	case "ticker":
		return fmt.Errorf("%w: invalid symbol", domain.ErrValidation)
	case "username":
		return fmt.Errorf("%w: invalid username", domain.ErrValidation)
	default:
		return fmt.Errorf("%w: invalid %s", domain.ErrValidation, field)
	}
}
