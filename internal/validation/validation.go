// Package validation runs struct-tag schema checks on service inputs and reports the
// first violation as a caller-facing message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/models"
)

var phoneRegex = regexp.MustCompile(`^[0-9]{7,15}$`)

// rules are the custom tags shared by every input struct.
var rules = map[string]validator.Func{
	"role": func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	},
	"phone": func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	},
}

func newValidator(custom map[string]validator.Func) (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return v, nil
}

// instance is built at package init, so a rule that fails to register panics at startup.
var instance = mustValidator(rules)

func mustValidator(custom map[string]validator.Func) *validator.Validate {
	v, err := newValidator(custom)
	if err != nil {
		panic("validation: " + err.Error())
	}
	return v
}

// Struct validates s and returns a Validation error naming the first offending field.
func Struct(s interface{}) error {
	err := instance.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validation(message(verrs[0]))
	}
	return apperr.Internal(fmt.Errorf("validate: %w", err))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "role":
		return field + " must be one of " + roleList()
	case "phone":
		return field + " must be a valid number with 7 to 15 digits"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "uuid", "uuid4":
		return field + " must be a valid id"
	default:
		return field + " is invalid"
	}
}

func roleList() string {
	roles := models.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return "[" + strings.Join(names, ", ") + "]"
}
