package supports

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports every field that failed validation, keyed by the
// name found in the field's `key` tag (falling back to the Go field name).
type ValidationError struct {
	Message string
	Errors  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) <= 1 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Errors))
	for key := range e.Errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return fmt.Sprintf("%s (and %d more: %s)", e.Message, len(keys)-1, strings.Join(keys, ", "))
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("key"), ",")[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	if err := validate.RegisterValidation("dialect", fieldDialect); err != nil {
		log.Panic(err)
	}
}

// fieldDialect accepts any spelling MapPostgres knows how to normalize
func fieldDialect(fl validator.FieldLevel) bool {
	switch MapPostgres(fl.Field().String()) {
	case "sqlite", "postgres", "mysql":
		return true
	}
	return false
}

// Validate checks data against its `validate` struct tags
func Validate(data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := &ValidationError{Errors: map[string]string{}}
	for index, fe := range fieldErrs {
		name := fieldName(fe)
		msg := fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", name, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (%s)", msg, fe.Param())
		}
		result.Errors[name] = msg
		if index == 0 {
			result.Message = msg
		}
	}

	return result
}

// fieldName drops the root struct name from the namespace so nested keys
// read like config paths, e.g. "exec.command".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
