// Package renderctx assembles the rendering context handed to the external
// template renderer.
//
// The context is built as a typed Context whose sections mirror the
// configuration. Only at the boundary is it flattened into the renderer's
// interchange format: a flat Map whose keys are nested section paths joined
// with "_" (for example session.plan_sections.file_list becomes
// session_plan_sections_file_list).
package renderctx

import (
	"time"
)

// TimestampLayout is the generated_at format, always in UTC.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// Map is the flat rendering context. Values are string, int or bool.
type Map map[string]any

// Context is the typed rendering context.
type Context struct {
	Session     SessionSection
	Component   ComponentSection
	Paths       PathsSection
	GitHub      GitHubSection
	Flags       FlagsSection
	Models      ModelsSection
	PlanMode    PlanModeSection
	GeneratedAt time.Time
}

// SessionSection carries the session facts. When Enabled is false only
// single_session_mode is emitted.
type SessionSection struct {
	Enabled   bool
	Number    int
	Total     int
	NumberGT1 bool
	IsFinal   bool
	NotFinal  bool
	Previous  int
	Next      int

	Scope                 string
	Duration              string
	FileCount             int
	PlanSections          []NamedRef
	PrerequisitesCheckRef string

	// NextEntry is set when the next session has been written.
	NextEntry *NextSession
}

// NamedRef is one plan section reference, in declaration order.
type NamedRef struct {
	Name string
	Ref  string
}

// NextSession is the subset of the next session exposed to templates.
type NextSession struct {
	Scope     string
	FileCount int
	Duration  string
	FileList  string
}

// ComponentSection identifies the component.
type ComponentSection struct {
	Name string
	Type string
}

// PathsSection holds every path reference; optional ones may be empty.
type PathsSection struct {
	SpecFile       string
	PlanFile       string
	TasksFile      string
	ResearchFile   string
	DataModelFile  string
	ContractsDir   string
	QuickstartFile string
}

// GitHubSection holds issue tracker references; absent ones are empty.
type GitHubSection struct {
	PR          string
	Issue       string
	ParentIssue string
	Branch      string
}

// FlagsSection is the feature flag set.
type FlagsSection struct {
	HasDatabaseChanges    bool
	HasAPIChanges         bool
	HasUIChanges          bool
	RequiresMigration     bool
	IncludeTestingSection bool
	IncludeRollbackPlan   bool
	IncludeSecurityReview bool
}

// ModelsSection maps roles to tiers; optional roles may be empty.
type ModelsSection struct {
	FeatureImplementer  string
	CodeReviewer        string
	TestWriter          string
	DocumentationWriter string
	Researcher          string
}

// PlanModeSection is the plan mode reference, empty when absent.
type PlanModeSection struct {
	SectionRef string
}

// tree is a nested section value. Leaves are scalars; a nested tree
// contributes its keys under the parent's path.
type tree map[string]any

// source is one merge step: a named section and its nested value.
type source struct {
	name  string
	value tree
}

// sources returns the sections in merge order.
func (c *Context) sources() []source {
	return []source{
		{"session", c.Session.tree()},
		{"component", tree{"component": tree{
			"name": c.Component.Name,
			"type": c.Component.Type,
		}}},
		{"paths", tree{"paths": tree{
			"spec_file":       c.Paths.SpecFile,
			"plan_file":       c.Paths.PlanFile,
			"tasks_file":      c.Paths.TasksFile,
			"research_file":   c.Paths.ResearchFile,
			"data_model_file": c.Paths.DataModelFile,
			"contracts_dir":   c.Paths.ContractsDir,
			"quickstart_file": c.Paths.QuickstartFile,
		}}},
		{"github", tree{"github": tree{
			"pr":           c.GitHub.PR,
			"issue":        c.GitHub.Issue,
			"parent_issue": c.GitHub.ParentIssue,
			"branch":       c.GitHub.Branch,
		}}},
		{"context", tree{"context": tree{
			"has_database_changes":    c.Flags.HasDatabaseChanges,
			"has_api_changes":         c.Flags.HasAPIChanges,
			"has_ui_changes":          c.Flags.HasUIChanges,
			"requires_migration":      c.Flags.RequiresMigration,
			"include_testing_section": c.Flags.IncludeTestingSection,
			"include_rollback_plan":   c.Flags.IncludeRollbackPlan,
			"include_security_review": c.Flags.IncludeSecurityReview,
		}}},
		{"models", tree{"models": tree{
			"feature_implementer":  c.Models.FeatureImplementer,
			"code_reviewer":        c.Models.CodeReviewer,
			"test_writer":          c.Models.TestWriter,
			"documentation_writer": c.Models.DocumentationWriter,
			"researcher":           c.Models.Researcher,
		}}},
		{"plan_mode", tree{"plan_mode": tree{
			"section_ref": c.PlanMode.SectionRef,
		}}},
		{"timestamp", tree{
			"generated_at": c.GeneratedAt.UTC().Format(TimestampLayout),
		}},
	}
}

func (s *SessionSection) tree() tree {
	if !s.Enabled {
		return tree{"single_session_mode": true}
	}

	plan := make(tree, len(s.PlanSections))
	for _, ref := range s.PlanSections {
		plan[ref.Name] = ref.Ref
	}

	t := tree{
		"session": tree{
			"enabled":                 true,
			"number":                  s.Number,
			"number_gt_1":             s.NumberGT1,
			"scope":                   s.Scope,
			"duration":                s.Duration,
			"file_count":              s.FileCount,
			"plan_sections":           plan,
			"prerequisites_check_ref": s.PrerequisitesCheckRef,
		},
		"single_session_mode": false,
		"total_sessions":      s.Total,
		"is_final_session":    s.IsFinal,
		"not_final_session":   s.NotFinal,
		"previous_session":    s.Previous,
		"next_session":        s.Next,
	}

	if s.NextEntry != nil {
		t["next_session_scope"] = s.NextEntry.Scope
		t["next_session_file_count"] = s.NextEntry.FileCount
		t["next_session_duration"] = s.NextEntry.Duration
		t["next_session_file_list"] = s.NextEntry.FileList
	}

	return t
}
