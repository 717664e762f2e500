package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	validatorv10 "github.com/go-playground/validator/v10"

	"pizzastore/apperr"
)

var (
	once     sync.Once
	instance *validatorv10.Validate
)

// Default returns the shared validator. validator caches struct metadata, so
// one instance serves the whole process.
func Default() *validatorv10.Validate {
	once.Do(func() { instance = validatorv10.New() })
	return instance
}

// Struct validates v and converts failures into an apperr Validation error.
func Struct(op string, v any) error {
	err := Default().Struct(v)
	if err == nil {
		return nil
	}
	return apperr.Wrap(apperr.Validation, op, err, Message(err))
}

// Message renders validator errors as one readable sentence.
func Message(err error) string {
	var verrs validatorv10.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describe(fe))
	}
	return strings.Join(parts, "; ")
}

func describe(fe validatorv10.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
