// Package schema validates parsed documents against JSON Schema (draft-07)
// and reports every violation in one pass.
//
// # Engines
//
// Validation is delegated to a swappable Engine:
//
//   - "openapi" (default) uses kin-openapi's schema visitor and reports the
//     exact keyword behind each violation.
//   - "cue" translates the schema with CUE's jsonschema encoder and validates
//     by unification.
//
// # Violations
//
// Each Violation carries a dot/bracket path ("root" for the document
// itself), a message, the offending value rendered as JSON and cut to
// MaxValueLength runes, and the violated keyword. Violations keep the order
// the engine reports them in.
//
// A schema that cannot be compiled produces a single violation at path
// "schema" rather than an error, so callers always get a Result.
//
// # Usage
//
//	registry := schema.NewRegistry()
//	engine, err := registry.Get("openapi")
//	if err != nil {
//	    return err
//	}
//	result := schema.NewValidator(engine, logger).Validate(ctx, doc, schemaDoc)
//	for _, v := range result.Errors {
//	    fmt.Printf("%s: %s [%s]\n", v.Path, v.Message, v.Constraint)
//	}
package schema
