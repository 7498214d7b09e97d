package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one rejected setting
type ValidationError struct {
	Field string
	Rule  string
	Param string
	Value interface{}
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failed for '%s': rule '%s'", e.Field, e.Rule)
	if e.Param != "" {
		msg += fmt.Sprintf(" (expected: %s)", e.Param)
	}
	if e.Value != nil && e.Value != "" {
		msg += fmt.Sprintf(", actual: '%v'", e.Value)
	}
	return msg
}

// ValidationErrors collects every rejected setting of a Config
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "configuration validation failed:\n  " + strings.Join(msgs, "\n  ")
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("renderer", oneOf(Renderers))
	_ = validate.RegisterValidation("reportformat", oneOf(ReportFormats))
	_ = validate.RegisterValidation("compression", oneOf(append([]string{""}, Compressions...)))
	_ = validate.RegisterValidation("loglevel", oneOf(append([]string{""}, LogLevels...)))
	_ = validate.RegisterValidation("logformat", oneOf(append([]string{""}, LogFormats...)))
	return validate
}

// oneOf accepts a case-insensitive member of values
func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := strings.ToLower(fl.Field().String())
		for _, v := range values {
			if s == v {
				return true
			}
		}
		return false
	}
}

// Validate checks every section of cfg
func Validate(cfg *Config) error {
	err := newValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}

	out := make(ValidationErrors, 0, len(errs))
	for _, e := range errs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, &ValidationError{
			Field: field,
			Rule:  e.Tag(),
			Param: e.Param(),
			Value: e.Value(),
		})
	}
	return out
}
