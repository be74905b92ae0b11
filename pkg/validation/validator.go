package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding: JSON tag names
// in errors plus aliases for the blog's field semantics.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

var loginValidate = validator.New()

// Login form messages, matched verbatim by the UI tests. The email check
// runs first, mirroring the form's top-to-bottom validation order.
const (
	MsgInvalidEmail  = "Please enter a valid email address"
	MsgShortPassword = "Password must be at least 6 characters long"
)

// ValidateLogin checks the credentials locally, before any network call.
// It returns the first human-readable problem, or "" when the form is clean.
func ValidateLogin(email, password string) string {
	if err := loginValidate.Var(email, "required,email"); err != nil {
		return MsgInvalidEmail
	}
	if err := loginValidate.Var(password, "required,min=6"); err != nil {
		return MsgShortPassword
	}
	return ""
}

// ToDetails converts binding errors into a field -> message map for the API
// error payload.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		if fe.Param() != "" {
			return "must be at least " + fe.Param() + " characters long"
		}
		return "too small"
	case "max":
		if fe.Param() != "" {
			return "must be at most " + fe.Param() + " characters long"
		}
		return "too large"
	default:
		return "validation failed for '" + fe.Tag() + "'"
	}
}
