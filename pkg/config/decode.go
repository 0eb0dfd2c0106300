package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sessionforge/sessionforge/pkg/schema"
)

// DecodeError reports struct-level constraint failures found after decoding.
// These mirror schema constraints and only fire when a custom schema is
// looser than the typed model.
type DecodeError struct {
	Violations []schema.Violation
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Path, v.Message))
	}
	return "configuration does not match the typed model: " + strings.Join(parts, "; ")
}

// Decoder turns a schema-valid document into a typed Config.
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder creates a decoder whose struct validation reports JSON field
// names.
func NewDecoder() *Decoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Decoder{validate: v}
}

// Decode converts a document in the JSON data model into a Config and
// checks its struct constraints.
func (d *Decoder) Decode(value any) (*Config, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	var violations []schema.Violation
	violations = append(violations, d.check(&cfg, "")...)
	for _, entry := range cfg.Session.Entries {
		if entry != nil {
			violations = append(violations, d.check(entry, "session."+SessionKey(entry.Number))...)
		}
	}
	if len(violations) > 0 {
		return nil, &DecodeError{Violations: violations}
	}

	return &cfg, nil
}

func (d *Decoder) check(s any, prefix string) []schema.Violation {
	err := d.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []schema.Violation{{Path: schema.RootPath, Message: err.Error()}}
	}

	violations := make([]schema.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Namespace starts with the Go type name of s.
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		if prefix != "" {
			path = prefix + "." + path
		}

		violations = append(violations, schema.Violation{
			Path:       path,
			Message:    describeFieldError(fe),
			Value:      schema.FormatValue(fe.Value()),
			Constraint: tagKeyword(fe.Tag()),
		})
	}
	return violations
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("property %q is missing", fe.Field())
	case "oneof":
		return fmt.Sprintf("value must be one of [%s]", fe.Param())
	case "startswith":
		return fmt.Sprintf("value must start with %q", fe.Param())
	case "gte":
		return fmt.Sprintf("value must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}

// tagKeyword maps validator tags onto the equivalent JSON Schema keyword.
func tagKeyword(tag string) string {
	switch tag {
	case "oneof":
		return "enum"
	case "startswith":
		return "pattern"
	case "gte":
		return "minimum"
	default:
		return tag
	}
}
