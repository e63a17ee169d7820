package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Errors maps a request field to the messages describing what is wrong with it
type Errors map[string][]string

// Add records a message for field
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Err returns e as an error, or nil when no field failed
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// New returns an Errors with a single field message
func New(field, message string) Errors {
	return Errors{field: {message}}
}

// AsErrors extracts field errors from err
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields under their JSON names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Struct validates a request DTO using its `validate` tags
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := Errors{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "lte":
		return fmt.Sprintf("must be %s or less", fe.Param())
	case "eqfield":
		return "must match " + fe.Param()
	default:
		return "is invalid"
	}
}

// ValidateEmail checks that email is a well formed address
func ValidateEmail(email string) error {
	if err := instance().Var(email, "required,email"); err != nil {
		return New("email", "must be a valid email address")
	}
	return nil
}

// ValidateName checks a display or user name
func ValidateName(name string) error {
	if err := instance().Var(name, "notblank,min=2,max=100"); err != nil {
		return New("username", "must be between 2 and 100 characters")
	}
	return nil
}

// ValidatePassword enforces the minimum password length
func ValidatePassword(password string) error {
	if err := instance().Var(password, "min=8,max=128"); err != nil {
		return New("password", "must be at least 8 characters")
	}
	return nil
}
