package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// ComponentType is the category tag of the component being implemented.
type ComponentType string

const (
	ComponentFeature        ComponentType = "feature"
	ComponentBugfix         ComponentType = "bugfix"
	ComponentRefactor       ComponentType = "refactor"
	ComponentInfrastructure ComponentType = "infrastructure"
	ComponentDocumentation  ComponentType = "documentation"
	ComponentIntegration    ComponentType = "integration"
)

// ModelTier is a capability tier assigned to a role.
type ModelTier string

const (
	TierOpus   ModelTier = "opus"
	TierSonnet ModelTier = "sonnet"
	TierHaiku  ModelTier = "haiku"
)

// Config is the typed configuration document.
type Config struct {
	// Component identifies what is being built.
	Component Component `json:"component"`

	// Session describes the implementation session split.
	Session SessionBlock `json:"session"`

	// Paths references the planning artifacts.
	Paths Paths `json:"paths"`

	// GitHub carries optional issue-tracker cross-references.
	GitHub *GitHub `json:"github,omitempty"`

	// Context holds the feature flags that gate template sections.
	Context Flags `json:"context"`

	// Models assigns a capability tier to each role.
	Models Models `json:"models"`

	// PlanMode is the optional plan-mode section.
	PlanMode *PlanMode `json:"plan_mode,omitempty"`
}

// Component is the identity section.
type Component struct {
	Name string        `json:"name" validate:"required"`
	Type ComponentType `json:"type" validate:"required,oneof=feature bugfix refactor infrastructure documentation integration"`
}

// SessionEntry is one session_<N> record.
type SessionEntry struct {
	// Number is N from the session_<N> key.
	Number int `json:"-"`

	Scope                 string       `json:"scope" validate:"required"`
	Duration              string       `json:"duration" validate:"required"`
	FileCount             int          `json:"file_count" validate:"gte=0"`
	PlanSections          PlanSections `json:"plan_sections"`
	PrerequisitesCheckRef string       `json:"prerequisites_check_ref"`
}

// PlanSections maps a session to the plan document sections it covers.
type PlanSections struct {
	FileList                  string `json:"file_list" validate:"required"`
	ImplementationSteps       string `json:"implementation_steps" validate:"required"`
	TestingStrategy           string `json:"testing_strategy" validate:"required"`
	AcceptanceCriteria        string `json:"acceptance_criteria" validate:"required"`
	ComprehensiveVerification string `json:"comprehensive_verification,omitempty"`
}

// Paths references other artifacts. The first three are required.
type Paths struct {
	SpecFile       string `json:"spec_file" validate:"required"`
	PlanFile       string `json:"plan_file" validate:"required"`
	TasksFile      string `json:"tasks_file" validate:"required"`
	ResearchFile   string `json:"research_file,omitempty"`
	DataModelFile  string `json:"data_model_file,omitempty"`
	ContractsDir   string `json:"contracts_dir,omitempty"`
	QuickstartFile string `json:"quickstart_file,omitempty"`
}

// GitHub holds "#<digits>" references and the working branch.
type GitHub struct {
	PR          string `json:"pr,omitempty" validate:"omitempty,startswith=#"`
	Issue       string `json:"issue,omitempty" validate:"omitempty,startswith=#"`
	ParentIssue string `json:"parent_issue,omitempty" validate:"omitempty,startswith=#"`
	Branch      string `json:"branch,omitempty"`
}

// Flags are the named booleans that gate optional template sections.
type Flags struct {
	HasDatabaseChanges    bool `json:"has_database_changes"`
	HasAPIChanges         bool `json:"has_api_changes"`
	HasUIChanges          bool `json:"has_ui_changes"`
	RequiresMigration     bool `json:"requires_migration"`
	IncludeTestingSection bool `json:"include_testing_section"`
	IncludeRollbackPlan   bool `json:"include_rollback_plan"`
	IncludeSecurityReview bool `json:"include_security_review"`
}

// Models assigns tiers to roles. Only FeatureImplementer is mandatory.
type Models struct {
	FeatureImplementer  ModelTier `json:"feature_implementer" validate:"required,oneof=opus sonnet haiku"`
	CodeReviewer        ModelTier `json:"code_reviewer,omitempty" validate:"omitempty,oneof=opus sonnet haiku"`
	TestWriter          ModelTier `json:"test_writer,omitempty" validate:"omitempty,oneof=opus sonnet haiku"`
	DocumentationWriter ModelTier `json:"documentation_writer,omitempty" validate:"omitempty,oneof=opus sonnet haiku"`
	Researcher          ModelTier `json:"researcher,omitempty" validate:"omitempty,oneof=opus sonnet haiku"`
}

// PlanMode is the auxiliary plan-mode section.
type PlanMode struct {
	SectionRef string `json:"section_ref,omitempty"`
}

var sessionKeyPattern = regexp.MustCompile(`^session_([0-9]+)$`)

// SessionKey returns the configuration key for session n.
func SessionKey(n int) string {
	return "session_" + strconv.Itoa(n)
}

// ParseSessionKey extracts N from a session_<N> key. N must be at least 1.
func ParseSessionKey(key string) (int, bool) {
	m := sessionKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// SessionBlock is the session section. The session_<N> keys of the document
// are held as an ordered list where Entries[N-1] is session N.
type SessionBlock struct {
	Enabled bool
	Current int
	Total   int

	// Entries has length max(Total, highest N defined). Missing sessions
	// are nil.
	Entries []*SessionEntry

	// UnknownKeys lists keys that are neither settings nor session_<N>.
	UnknownKeys []string
}

// Entry returns session n, bounds-checked.
func (s *SessionBlock) Entry(n int) (*SessionEntry, bool) {
	if n < 1 || n > len(s.Entries) || s.Entries[n-1] == nil {
		return nil, false
	}
	return s.Entries[n-1], true
}

// Missing returns the numbers in 1..Total that have no entry.
func (s *SessionBlock) Missing() []int {
	var missing []int
	for n := 1; n <= s.Total; n++ {
		if _, ok := s.Entry(n); !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Stray returns the numbers above Total that have an entry.
func (s *SessionBlock) Stray() []int {
	var stray []int
	for n := s.Total + 1; n <= len(s.Entries); n++ {
		if _, ok := s.Entry(n); ok {
			stray = append(stray, n)
		}
	}
	return stray
}

// UnmarshalJSON decodes the fixed settings and collects session_<N> keys
// into Entries.
func (s *SessionBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := SessionBlock{}
	entries := make(map[int]*SessionEntry)
	highest := 0

	for key, msg := range raw {
		var err error
		switch key {
		case "enabled":
			err = json.Unmarshal(msg, &out.Enabled)
		case "current":
			err = json.Unmarshal(msg, &out.Current)
		case "total":
			err = json.Unmarshal(msg, &out.Total)
		default:
			n, ok := ParseSessionKey(key)
			if !ok {
				out.UnknownKeys = append(out.UnknownKeys, key)
				continue
			}
			var entry SessionEntry
			if err := json.Unmarshal(msg, &entry); err != nil {
				return fmt.Errorf("session.%s: %w", key, err)
			}
			entry.Number = n
			entries[n] = &entry
			if n > highest {
				highest = n
			}
		}
		if err != nil {
			return fmt.Errorf("session.%s: %w", key, err)
		}
	}

	size := out.Total
	if highest > size {
		size = highest
	}
	out.Entries = make([]*SessionEntry, size)
	for n, entry := range entries {
		out.Entries[n-1] = entry
	}
	sort.Strings(out.UnknownKeys)

	*s = out
	return nil
}

// MarshalJSON writes the block back in document shape.
func (s SessionBlock) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"enabled": s.Enabled,
	}
	if s.Current != 0 {
		m["current"] = s.Current
	}
	if s.Total != 0 {
		m["total"] = s.Total
	}
	for _, entry := range s.Entries {
		if entry != nil {
			m[SessionKey(entry.Number)] = entry
		}
	}
	return json.Marshal(m)
}
