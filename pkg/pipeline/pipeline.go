// Package pipeline runs the configuration pipeline: load the configuration
// and its schema, validate structurally, decode, check session bookkeeping,
// optionally lint with policies, then compute session facts and build the
// rendering context.
//
// Hard failures come back as *Error values whose class selects the exit
// status. A configuration that fails schema validation is not an error of
// Validate; it is reported through the Outcome so every violation can be
// shown.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/sessionforge/sessionforge/pkg/config"
	"github.com/sessionforge/sessionforge/pkg/document"
	"github.com/sessionforge/sessionforge/pkg/policy"
	"github.com/sessionforge/sessionforge/pkg/renderctx"
	"github.com/sessionforge/sessionforge/pkg/schema"
	"github.com/sessionforge/sessionforge/pkg/session"
	"github.com/sessionforge/sessionforge/pkg/telemetry"
)

// DefaultConfigPath is where the configuration lives when no path is given.
const DefaultConfigPath = "sessionforge/config.yaml"

// Stage names, used for spans, metrics and Error.Stage.
const (
	StageLoad     = "load"
	StageSchema   = "schema"
	StageDecode   = "decode"
	StageSemantic = "semantic"
	StageLint     = "lint"
	StageSession  = "session"
	StageContext  = "context"
)

// Warning sources for metrics.
const (
	sourceSemantic = "semantic"
	sourcePolicy   = "policy"
)

// Options selects the inputs of one run.
type Options struct {
	// ConfigPath is the configuration file. Empty means DefaultConfigPath.
	ConfigPath string

	// SchemaPath is the schema file. Empty means config.schema.json in the
	// configuration's directory.
	SchemaPath string

	// Engine names the schema engine. Empty means schema.DefaultEngine.
	Engine string

	// Lint enables the policy pass.
	Lint bool

	// PolicyPaths are extra policy files or directories. Setting any
	// implies Lint.
	PolicyPaths []string
}

// ResolveSchemaPath returns the schema path for a configuration path.
func ResolveSchemaPath(configPath, schemaPath string) string {
	if schemaPath != "" {
		return schemaPath
	}
	return filepath.Join(filepath.Dir(configPath), config.DefaultSchemaFile)
}

func (o Options) withDefaults() Options {
	if o.ConfigPath == "" {
		o.ConfigPath = DefaultConfigPath
	}
	o.SchemaPath = ResolveSchemaPath(o.ConfigPath, o.SchemaPath)
	if o.Engine == "" {
		o.Engine = schema.DefaultEngine
	}
	if len(o.PolicyPaths) > 0 {
		o.Lint = true
	}
	return o
}

// Outcome is what a validation run found.
type Outcome struct {
	// ConfigPath and SchemaPath are the files that were read.
	ConfigPath string `json:"config_path"`
	SchemaPath string `json:"schema_path"`

	// Engine is the schema engine that ran.
	Engine string `json:"engine"`

	// Result holds the schema violations and all warnings.
	Result *schema.Result `json:"result"`

	// Findings are the policy findings, also present in Result.Warnings.
	Findings []policy.Finding `json:"findings,omitempty"`

	// Config is the typed configuration, nil unless Result.Valid.
	Config *config.Config `json:"-"`

	// Document is the configuration as loaded.
	Document *document.Document `json:"-"`
}

// Err returns a schema-class error when the configuration is invalid.
func (o *Outcome) Err() error {
	if o.Result == nil || o.Result.Valid {
		return nil
	}
	return NewSchemaError(
		fmt.Sprintf("%s failed validation with %d error(s)", o.ConfigPath, len(o.Result.Errors)), nil,
	).WithCode(ErrCodeInvalidConfig).WithStage(StageSchema)
}

// Pipeline wires the loader, validators and builders together. A Pipeline
// may be reused for several runs but not concurrently.
type Pipeline struct {
	logger     zerolog.Logger
	loader     *document.Loader
	registry   *schema.Registry
	decoder    *config.Decoder
	calculator *session.Calculator
	builder    *renderctx.Builder
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for the context timestamp and policy input.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithRegistry replaces the schema engine registry.
func WithRegistry(r *schema.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

// New creates a pipeline.
func New(logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:   logger.With().Str("component", "pipeline").Logger(),
		registry: schema.NewRegistry(),
		decoder:  config.NewDecoder(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.loader = document.NewLoader(logger)
	p.calculator = session.NewCalculator(logger)
	p.builder = renderctx.NewBuilder(logger, renderctx.WithClock(p.now))
	return p
}

// Validate loads and validates the configuration. It returns an error for
// load failures and internal faults. Schema violations are reported in the
// outcome.
func (p *Pipeline) Validate(ctx context.Context, opts Options) (*Outcome, error) {
	opts = opts.withDefaults()
	metrics := metricsFrom(ctx)

	engine, err := p.registry.Get(opts.Engine)
	if err != nil {
		return nil, NewInternalError("", err).WithCode(ErrCodeUnknownEngine).WithStage(StageSchema)
	}

	out := &Outcome{
		ConfigPath: opts.ConfigPath,
		SchemaPath: opts.SchemaPath,
		Engine:     engine.Name(),
	}

	cfgDoc, schemaDoc, err := p.load(ctx, opts)
	if err != nil {
		return nil, err
	}
	out.Document = cfgDoc

	op := telemetry.StartOperation(ctx, StageSchema, telemetry.AttrEngine.String(engine.Name()))
	result := schema.NewValidator(engine, p.logger).Validate(op.Ctx, cfgDoc.Value, schemaDoc.Value)
	op.End(nil)

	if result.Valid {
		op = telemetry.StartOperation(ctx, StageDecode)
		cfg, err := p.decoder.Decode(cfgDoc.Value)
		op.End(err)
		if err != nil {
			var de *config.DecodeError
			if !errors.As(err, &de) {
				return nil, NewInternalError("failed to decode configuration", err).WithStage(StageDecode)
			}
			result = schema.NewResult(de.Violations)
		} else {
			out.Config = cfg
		}
	}

	for _, v := range result.Errors {
		metrics.RecordViolation(v.Constraint)
	}

	if result.Valid {
		op = telemetry.StartOperation(ctx, StageSemantic)
		warnings := config.CheckSessions(out.Config)
		op.End(nil)
		metrics.RecordWarnings(sourceSemantic, len(warnings))
		result = result.WithWarnings(warnings...)

		if opts.Lint {
			res, err := p.lint(ctx, opts, cfgDoc)
			if err != nil {
				return nil, err
			}
			out.Findings = res.Findings
			lines := res.Warnings()
			metrics.RecordWarnings(sourcePolicy, len(lines))
			result = result.WithWarnings(lines...)
		}
	}

	out.Result = result

	p.logger.Debug().
		Str("config", opts.ConfigPath).
		Bool("valid", result.Valid).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("Validation finished")

	return out, nil
}

// Context validates the configuration and builds the flat rendering
// context. Unlike Validate, an invalid configuration is an error here.
func (p *Pipeline) Context(ctx context.Context, opts Options) (*Outcome, renderctx.Map, error) {
	out, err := p.Validate(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := out.Err(); err != nil {
		return out, nil, err
	}

	op := telemetry.StartOperation(ctx, StageSession)
	facts, err := p.calculator.Calculate(&out.Config.Session)
	op.End(err)
	if err != nil {
		return out, nil, NewSessionError("cannot build the rendering context", err).
			WithCode(ErrCodeMissingSession).
			WithStage(StageSession)
	}

	op = telemetry.StartOperation(ctx, StageContext)
	m := p.builder.Flat(out.Config, facts)
	op.End(nil)

	return out, m, nil
}

// load reads the configuration and its schema.
func (p *Pipeline) load(ctx context.Context, opts Options) (*document.Document, *document.Document, error) {
	op := telemetry.StartOperation(ctx, StageLoad, telemetry.AttrConfigPath.String(opts.ConfigPath))

	cfgDoc, err := p.loader.LoadConfig(opts.ConfigPath)
	if err != nil {
		op.End(err)
		return nil, nil, Classify(err).WithStage(StageLoad)
	}

	schemaDoc, err := p.loader.LoadSchema(opts.SchemaPath)
	if err != nil {
		op.End(err)
		return nil, nil, Classify(err).WithStage(StageLoad)
	}

	op.End(nil)
	return cfgDoc, schemaDoc, nil
}

// lint runs the built-in and user policies over the raw document.
func (p *Pipeline) lint(ctx context.Context, opts Options, doc *document.Document) (*policy.Result, error) {
	op := telemetry.StartOperation(ctx, StageLint)

	eng, err := policy.NewEngine(p.logger)
	if err != nil {
		op.End(err)
		return nil, NewInternalError("failed to start policy engine", err).WithStage(StageLint)
	}

	if len(opts.PolicyPaths) > 0 {
		if err := eng.LoadPolicies(op.Ctx, opts.PolicyPaths); err != nil {
			op.End(err)
			return nil, NewLoadError("failed to load policies", err).WithStage(StageLint)
		}
	}

	res, err := eng.Evaluate(op.Ctx, &policy.Input{
		Config: doc.Value,
		Context: policy.InputContext{
			Operation:  "validate",
			ConfigPath: opts.ConfigPath,
			Timestamp:  p.now().UTC(),
		},
	})
	op.End(err)
	if err != nil {
		return nil, NewInternalError("policy evaluation failed", err).WithStage(StageLint)
	}

	for _, e := range res.Errors {
		p.logger.Warn().Str("error", e).Msg("Policy failed to evaluate")
	}

	return res, nil
}

func metricsFrom(ctx context.Context) *telemetry.Metrics {
	if tel := telemetry.FromTelemetryContext(ctx); tel != nil {
		return tel.Metrics
	}
	return nil
}
