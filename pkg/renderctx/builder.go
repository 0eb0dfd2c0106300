package renderctx

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sessionforge/sessionforge/pkg/config"
	"github.com/sessionforge/sessionforge/pkg/session"
)

// Builder assembles a Context from a decoded configuration and its session
// facts.
type Builder struct {
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock used for generated_at.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a context builder.
func NewBuilder(logger zerolog.Logger, opts ...Option) *Builder {
	b := &Builder{
		logger: logger.With().Str("component", "context-builder").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates the typed context. facts must come from the session
// calculator for the same configuration.
func (b *Builder) Build(cfg *config.Config, facts *session.Facts) *Context {
	ctx := &Context{
		Session: sessionSection(facts),
		Component: ComponentSection{
			Name: cfg.Component.Name,
			Type: string(cfg.Component.Type),
		},
		Paths: PathsSection{
			SpecFile:       cfg.Paths.SpecFile,
			PlanFile:       cfg.Paths.PlanFile,
			TasksFile:      cfg.Paths.TasksFile,
			ResearchFile:   cfg.Paths.ResearchFile,
			DataModelFile:  cfg.Paths.DataModelFile,
			ContractsDir:   cfg.Paths.ContractsDir,
			QuickstartFile: cfg.Paths.QuickstartFile,
		},
		Flags: FlagsSection{
			HasDatabaseChanges:    cfg.Context.HasDatabaseChanges,
			HasAPIChanges:         cfg.Context.HasAPIChanges,
			HasUIChanges:          cfg.Context.HasUIChanges,
			RequiresMigration:     cfg.Context.RequiresMigration,
			IncludeTestingSection: cfg.Context.IncludeTestingSection,
			IncludeRollbackPlan:   cfg.Context.IncludeRollbackPlan,
			IncludeSecurityReview: cfg.Context.IncludeSecurityReview,
		},
		Models: ModelsSection{
			FeatureImplementer:  string(cfg.Models.FeatureImplementer),
			CodeReviewer:        string(cfg.Models.CodeReviewer),
			TestWriter:          string(cfg.Models.TestWriter),
			DocumentationWriter: string(cfg.Models.DocumentationWriter),
			Researcher:          string(cfg.Models.Researcher),
		},
		GeneratedAt: b.now().UTC(),
	}

	if gh := cfg.GitHub; gh != nil {
		ctx.GitHub = GitHubSection{
			PR:          gh.PR,
			Issue:       gh.Issue,
			ParentIssue: gh.ParentIssue,
			Branch:      gh.Branch,
		}
	}
	if pm := cfg.PlanMode; pm != nil {
		ctx.PlanMode.SectionRef = pm.SectionRef
	}

	if _, collisions := ctx.flatten(); len(collisions) > 0 {
		b.logger.Debug().Strs("keys", collisions).Msg("Context keys overwritten by a later section")
	}

	return ctx
}

// Flat builds the context and flattens it.
func (b *Builder) Flat(cfg *config.Config, facts *session.Facts) Map {
	m := b.Build(cfg, facts).Flatten()
	b.logger.Debug().Int("keys", len(m)).Msg("Rendering context built")
	return m
}

func sessionSection(f *session.Facts) SessionSection {
	if f == nil || !f.Enabled {
		return SessionSection{}
	}

	s := SessionSection{
		Enabled:   true,
		Number:    f.Number,
		Total:     f.Total,
		NumberGT1: f.NumberGT1,
		IsFinal:   f.IsFinal,
		NotFinal:  f.NotFinal,
		Previous:  f.Previous,
		Next:      f.Next,
	}

	if cur := f.Current; cur != nil {
		s.Scope = cur.Scope
		s.Duration = cur.Duration
		s.FileCount = cur.FileCount
		s.PrerequisitesCheckRef = cur.PrerequisitesCheckRef
		s.PlanSections = planRefs(cur.PlanSections)
	}

	if next := f.NextEntry; next != nil {
		s.NextEntry = &NextSession{
			Scope:     next.Scope,
			FileCount: next.FileCount,
			Duration:  next.Duration,
			FileList:  next.PlanSections.FileList,
		}
	}

	return s
}

func planRefs(p config.PlanSections) []NamedRef {
	refs := []NamedRef{
		{Name: "file_list", Ref: p.FileList},
		{Name: "implementation_steps", Ref: p.ImplementationSteps},
		{Name: "testing_strategy", Ref: p.TestingStrategy},
		{Name: "acceptance_criteria", Ref: p.AcceptanceCriteria},
	}
	if p.ComprehensiveVerification != "" {
		refs = append(refs, NamedRef{Name: "comprehensive_verification", Ref: p.ComprehensiveVerification})
	}
	return refs
}
