package schema

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultEngine is the engine used when none is named.
const DefaultEngine = "openapi"

// Registry manages the available schema engines.
type Registry struct {
	engines map[string]Engine
	mu      sync.RWMutex
}

// NewRegistry creates a registry with the built-in engines.
func NewRegistry() *Registry {
	r := &Registry{
		engines: make(map[string]Engine),
	}
	r.Register(NewOpenAPIEngine())
	r.Register(NewCUEEngine())
	return r
}

// Register adds or replaces an engine under its own name.
func (r *Registry) Register(engine Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[engine.Name()] = engine
}

// Get retrieves an engine by name. An empty name selects DefaultEngine.
func (r *Registry) Get(name string) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	engine, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("schema engine %q not found (available: %v)", name, r.namesLocked())
	}
	return engine, nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validator runs structural validation against a JSON Schema. It applies no
// domain rules of its own.
type Validator struct {
	engine Engine
	logger zerolog.Logger
}

// NewValidator creates a validator backed by engine.
func NewValidator(engine Engine, logger zerolog.Logger) *Validator {
	return &Validator{
		engine: engine,
		logger: logger.With().Str("component", "schema-validator").Str("engine", engine.Name()).Logger(),
	}
}

// Validate compiles schema and evaluates value against it, collecting every
// violation. A schema that fails to compile yields a single violation with
// path "schema".
func (v *Validator) Validate(ctx context.Context, value, schema any) *Result {
	compiled, err := v.engine.Compile(schema)
	if err != nil {
		v.logger.Error().Err(err).Msg("Schema compilation failed")
		return NewResult([]Violation{{
			Path:    SchemaPath,
			Message: fmt.Sprintf("failed to compile schema: %v", err),
		}})
	}

	violations := compiled.Validate(ctx, value)

	v.logger.Debug().
		Int("violations", len(violations)).
		Msg("Schema validation completed")

	return NewResult(violations)
}
