package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail sends {"detail": message}, the shape of non-field errors.
func writeDetail(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"detail": message})
}

// writeFields sends a 400 with {"field": ["message", ...]}.
func writeFields(w http.ResponseWriter, fe domerrors.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, fe)
}

func fieldError(field, message string) domerrors.FieldErrors {
	return domerrors.FieldErrors{field: {message}}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validationErrors renders validator errors with the server's wording.
func validationErrors(err error) domerrors.FieldErrors {
	fe := domerrors.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("non_field_errors", "Invalid input.")
		return fe
	}
	for _, ve := range verrs {
		field := ve.Field()
		switch ve.Tag() {
		case "required":
			fe.Add(field, "This field is required.")
		case "email":
			fe.Add(field, "Enter a valid email address.")
		case "min":
			fe.Add(field, "Ensure this field has at least "+ve.Param()+" characters.")
		case "oneof":
			fe.Add(field, "\""+toString(ve.Value())+"\" is not a valid choice.")
		default:
			fe.Add(field, "Invalid value.")
		}
	}
	return fe
}

func toString(v interface{}) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	b, _ := json.Marshal(v)
	return string(b)
}
