package state

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

// RequiredMessage matches the server's wording for a missing field.
const RequiredMessage = "This field is required."

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their form name, then JSON name.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("form"); name != "" {
				return name
			}
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// ValidateStruct checks v's validate tags and returns FieldErrors with one
// message per failing field, or nil.
func ValidateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := domerrors.FieldErrors{}
	for _, ve := range verrs {
		fe.Add(ve.Field(), message(ve))
	}
	return fe
}

// ValidEmail reports whether s is a well-formed email address.
func ValidEmail(s string) bool {
	return validatorInstance().Var(s, "required,email") == nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return RequiredMessage
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "eqfield":
		return "Passwords do not match."
	default:
		return "Invalid value."
	}
}
