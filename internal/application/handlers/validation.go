package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/services"
	"github.com/ersonp/roots-core/internal/infrastructure/parsers"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names, which is what callers sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := parsers.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("reltype", func(fl validator.FieldLevel) bool {
		_, err := entities.ParseRelationType(fl.Field().String())
		return err == nil
	})

	return v
}

// ValidationError lists every field of a request that failed validation.
// It matches services.ErrInvalidData with errors.Is.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Unwrap() error {
	return services.ErrInvalidData
}

// Validate checks a request struct against its validate tags.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, formatFieldError(fe))
	}
	return &ValidationError{Fields: messages}
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is empty", field, snakeCase(e.Param()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "date":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD, YYYY-MM or YYYY)", field)
	case "reltype":
		return fmt.Sprintf("%s must be one of: parent, child, spouse, sibling", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// snakeCase turns a Go field name such as LastName into last_name.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseOptionalDate parses a request date. Empty input yields nil.
func parseOptionalDate(s string) (*time.Time, error) {
	t, err := parsers.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrInvalidData, err)
	}
	return t, nil
}
