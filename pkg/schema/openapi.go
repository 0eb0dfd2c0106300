package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIEngine validates with kin-openapi's schema visitor. It reports the
// violated keyword for every error, which makes it the default engine.
//
// Local references of the form "#/definitions/<name>" and "#/$defs/<name>"
// are resolved at compile time. Keywords outside the OpenAPI 3 schema
// vocabulary (const, patternProperties, if/then/else) are ignored.
type OpenAPIEngine struct{}

// NewOpenAPIEngine creates the kin-openapi backed engine.
func NewOpenAPIEngine() *OpenAPIEngine {
	return &OpenAPIEngine{}
}

// Name implements Engine.
func (e *OpenAPIEngine) Name() string {
	return "openapi"
}

// Compile implements Engine.
func (e *OpenAPIEngine) Compile(schema any) (Compiled, error) {
	obj, ok := schema.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema root must be an object, got %s", typeName(schema))
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	var root openapi3.Schema
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	var defs struct {
		Definitions map[string]*openapi3.Schema `json:"definitions"`
		Defs        map[string]*openapi3.Schema `json:"$defs"`
	}
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to decode schema definitions: %w", err)
	}

	r := &refResolver{
		root:        &root,
		definitions: defs.Definitions,
		defs:        defs.Defs,
		visited:     make(map[*openapi3.Schema]bool),
	}
	if err := r.resolveSchema(&root, "#"); err != nil {
		return nil, err
	}
	for name, def := range defs.Definitions {
		if err := r.resolveSchema(def, "#/definitions/"+name); err != nil {
			return nil, err
		}
	}
	for name, def := range defs.Defs {
		if err := r.resolveSchema(def, "#/$defs/"+name); err != nil {
			return nil, err
		}
	}

	return &openapiSchema{root: &root}, nil
}

type openapiSchema struct {
	root *openapi3.Schema
}

// Validate implements Compiled.
func (s *openapiSchema) Validate(ctx context.Context, value any) []Violation {
	err := s.root.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var violations []Violation
	for _, e := range flattenErrors(err) {
		violations = append(violations, toViolation(value, e))
	}
	return violations
}

// flattenErrors expands nested MultiErrors in visit order.
func flattenErrors(err error) []error {
	if me, ok := err.(openapi3.MultiError); ok {
		var out []error
		for _, e := range me {
			out = append(out, flattenErrors(e)...)
		}
		return out
	}
	return []error{err}
}

func toViolation(root any, err error) Violation {
	var se *openapi3.SchemaError
	if !errors.As(err, &se) {
		return Violation{Path: RootPath, Message: err.Error()}
	}

	message := se.Reason
	if message == "" {
		message = se.Error()
	}

	return Violation{
		Path:       FormatPath(root, se.JSONPointer()),
		Message:    message,
		Value:      FormatValue(se.Value),
		Constraint: keyword(se),
	}
}

// keyword maps kin-openapi's SchemaField onto the JSON Schema keyword that
// was violated. Undeclared properties are reported under "properties".
func keyword(se *openapi3.SchemaError) string {
	if se.SchemaField == "properties" && strings.Contains(se.Reason, "unsupported") {
		return "additionalProperties"
	}
	if se.SchemaField == "additionalProperties" {
		return "additionalProperties"
	}
	return se.SchemaField
}

// refResolver binds local $ref pointers to their definitions and checks
// that every pattern compiles.
type refResolver struct {
	root        *openapi3.Schema
	definitions map[string]*openapi3.Schema
	defs        map[string]*openapi3.Schema
	visited     map[*openapi3.Schema]bool
}

func (r *refResolver) lookup(ref string) (*openapi3.Schema, error) {
	switch {
	case ref == "#":
		return r.root, nil
	case strings.HasPrefix(ref, "#/definitions/"):
		name := unescapePointer(strings.TrimPrefix(ref, "#/definitions/"))
		if def, ok := r.definitions[name]; ok && def != nil {
			return def, nil
		}
	case strings.HasPrefix(ref, "#/$defs/"):
		name := unescapePointer(strings.TrimPrefix(ref, "#/$defs/"))
		if def, ok := r.defs[name]; ok && def != nil {
			return def, nil
		}
	default:
		return nil, fmt.Errorf("unsupported reference %q: only local definitions are supported", ref)
	}
	return nil, fmt.Errorf("unresolved reference %q", ref)
}

func (r *refResolver) resolveRef(ref *openapi3.SchemaRef, where string) error {
	if ref == nil {
		return nil
	}
	if ref.Value == nil {
		if ref.Ref == "" {
			return fmt.Errorf("%s: empty schema", where)
		}
		target, err := r.lookup(ref.Ref)
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		ref.Value = target
	}
	return r.resolveSchema(ref.Value, where)
}

func (r *refResolver) resolveSchema(s *openapi3.Schema, where string) error {
	if s == nil || r.visited[s] {
		return nil
	}
	r.visited[s] = true

	if s.Pattern != "" {
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return fmt.Errorf("%s: invalid pattern %q: %w", where, s.Pattern, err)
		}
	}

	for name, prop := range s.Properties {
		if err := r.resolveRef(prop, where+"/properties/"+name); err != nil {
			return err
		}
	}
	if err := r.resolveRef(s.Items, where+"/items"); err != nil {
		return err
	}
	if err := r.resolveRef(s.AdditionalProperties.Schema, where+"/additionalProperties"); err != nil {
		return err
	}
	if err := r.resolveRef(s.Not, where+"/not"); err != nil {
		return err
	}
	for i, sub := range s.AllOf {
		if err := r.resolveRef(sub, fmt.Sprintf("%s/allOf/%d", where, i)); err != nil {
			return err
		}
	}
	for i, sub := range s.AnyOf {
		if err := r.resolveRef(sub, fmt.Sprintf("%s/anyOf/%d", where, i)); err != nil {
			return err
		}
	}
	for i, sub := range s.OneOf {
		if err := r.resolveRef(sub, fmt.Sprintf("%s/oneOf/%d", where, i)); err != nil {
			return err
		}
	}
	return nil
}

func unescapePointer(s string) string {
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
