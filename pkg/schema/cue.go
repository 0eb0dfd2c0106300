package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/jsonschema"
)

// CUEEngine translates the JSON Schema into CUE and validates by
// unification. CUE does not expose the originating keyword, so Constraint
// is inferred from the error text and may be empty.
type CUEEngine struct {
	ctx *cue.Context
}

// NewCUEEngine creates the CUE backed engine.
func NewCUEEngine() *CUEEngine {
	return &CUEEngine{ctx: cuecontext.New()}
}

// Name implements Engine.
func (e *CUEEngine) Name() string {
	return "cue"
}

// Compile implements Engine.
func (e *CUEEngine) Compile(schema any) (Compiled, error) {
	if _, ok := schema.(map[string]any); !ok {
		return nil, fmt.Errorf("schema root must be an object, got %s", typeName(schema))
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	// JSON is valid CUE.
	schemaVal := e.ctx.CompileBytes(data, cue.Filename("schema.json"))
	if err := schemaVal.Err(); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	file, err := jsonschema.Extract(schemaVal, &jsonschema.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to translate schema: %s", cueerrors.Details(err, nil))
	}

	val := e.ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("failed to build schema: %s", cueerrors.Details(err, nil))
	}

	return &cueSchema{ctx: e.ctx, value: val}, nil
}

type cueSchema struct {
	ctx   *cue.Context
	value cue.Value
}

// Validate implements Compiled.
func (s *cueSchema) Validate(ctx context.Context, value any) []Violation {
	data, err := json.Marshal(value)
	if err != nil {
		return []Violation{{Path: RootPath, Message: fmt.Sprintf("document is not representable as JSON: %v", err)}}
	}

	// Compile rather than Encode so that JSON integers stay CUE ints.
	doc := s.ctx.CompileBytes(data, cue.Filename("config"))
	if err := doc.Err(); err != nil {
		return []Violation{{Path: RootPath, Message: cueerrors.Details(err, nil)}}
	}

	unified := s.value.Unify(doc)
	var violations []Violation
	seen := make(map[string]bool)
	add := func(v Violation) {
		key := v.Path + "\x00" + v.Constraint
		if v.Constraint == "" {
			key += "\x00" + v.Message
		}
		if seen[key] {
			return
		}
		seen[key] = true
		violations = append(violations, v)
	}

	// Once a conflicting value is found CUE no longer reports absent
	// required fields, so conflicts and incomplete values are collected in
	// separate passes and the structure is checked on its own.
	for _, err := range []error{unified.Validate(), unified.Validate(cue.Concrete(true))} {
		for _, e := range cueerrors.Errors(err) {
			path := e.Path()
			format, args := e.Msg()
			message := fmt.Sprintf(format, args...)

			v := Violation{
				Path:       FormatPath(value, path),
				Message:    message,
				Constraint: inferKeyword(message),
			}
			if node, ok := Lookup(value, path); ok {
				v.Value = FormatValue(node)
			}
			add(v)
		}
	}
	if len(violations) > 0 {
		for _, v := range structural(unified, value, value, nil) {
			add(v)
		}
	}
	return violations
}

// structural walks the unified value alongside the document, reporting
// required fields the document lacks and keys the schema does not allow.
func structural(v cue.Value, root, node any, path []string) []Violation {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil
	}

	var out []Violation
	if iter, err := v.Fields(cue.Optional(true)); err == nil {
		for iter.Next() {
			sel := iter.Selector()
			if sel.ConstraintType() != cue.RequiredConstraint {
				continue
			}
			name := sel.Unquoted()
			if _, ok := obj[name]; ok {
				continue
			}
			out = append(out, Violation{
				Path:       FormatPath(root, childPath(path, name)),
				Message:    "field is required but not present",
				Constraint: "required",
			})
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p := childPath(path, k)
		if !v.Allows(cue.Str(k)) {
			out = append(out, Violation{
				Path:       FormatPath(root, p),
				Message:    "field not allowed",
				Value:      FormatValue(obj[k]),
				Constraint: "additionalProperties",
			})
			continue
		}
		out = append(out, structural(v.LookupPath(cue.MakePath(cue.Str(k))), root, obj[k], p)...)
	}
	return out
}

func childPath(path []string, name string) []string {
	return append(path[:len(path):len(path)], name)
}

// inferKeyword guesses the JSON Schema keyword from a CUE error message.
func inferKeyword(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "required"):
		return "required"
	case strings.Contains(m, "not allowed"):
		return "additionalProperties"
	case strings.Contains(m, "=~"), strings.Contains(m, "does not match"):
		return "pattern"
	case strings.Contains(m, ">="), strings.Contains(m, "> "):
		return "minimum"
	case strings.Contains(m, "<="), strings.Contains(m, "< "):
		return "maximum"
	case strings.Contains(m, "empty disjunction"):
		return "enum"
	case strings.Contains(m, "conflicting values"), strings.Contains(m, "mismatched types"):
		return "type"
	default:
		return ""
	}
}
