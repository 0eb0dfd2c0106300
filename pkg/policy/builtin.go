package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		sessionFileCountPolicy(),
		sessionDurationPolicy(),
		nextSessionScopePolicy(),
		planModeReferencePolicy(),
		apiSecurityReviewPolicy(),
	}
}

// sessionFileCountPolicy flags sessions that touch too many files to fit a
// single sitting.
func sessionFileCountPolicy() Policy {
	return Policy{
		Name:        "session-file-count",
		Description: "Flags sessions that touch more files than fit in one session",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"sessions", "sizing"},
		Rego: `package sessionforge.lint.file_count

import rego.v1

max_files := 15

deny contains finding if {
	input.config.session.enabled
	some key, entry in input.config.session
	startswith(key, "session_")
	is_object(entry)
	entry.file_count > max_files
	finding := {
		"path": sprintf("session.%s.file_count", [key]),
		"message": sprintf("%s touches %d files, more than %d", [key, entry.file_count, max_files]),
		"remediation": "split the session",
	}
}
`,
	}
}

// sessionDurationPolicy flags session durations with an upper bound above
// a working day.
func sessionDurationPolicy() Policy {
	return Policy{
		Name:        "session-duration",
		Description: "Flags sessions estimated to take longer than a working day",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"sessions", "sizing"},
		Rego: `package sessionforge.lint.duration

import rego.v1

max_hours := 8

deny contains finding if {
	input.config.session.enabled
	some key, entry in input.config.session
	startswith(key, "session_")
	is_object(entry)
	parts := regex.find_all_string_submatch_n("^([0-9]+)-([0-9]+) hours$", entry.duration, 1)
	count(parts) == 1
	upper := to_number(parts[0][2])
	upper > max_hours
	finding := {
		"path": sprintf("session.%s.duration", [key]),
		"message": sprintf("%s is estimated at up to %d hours", [key, upper]),
		"remediation": sprintf("keep sessions at or under %d hours", [max_hours]),
	}
}

deny contains finding if {
	input.config.session.enabled
	some key, entry in input.config.session
	startswith(key, "session_")
	is_object(entry)
	parts := regex.find_all_string_submatch_n("^([0-9]+)-([0-9]+) hours$", entry.duration, 1)
	count(parts) == 1
	to_number(parts[0][1]) > to_number(parts[0][2])
	finding := {
		"path": sprintf("session.%s.duration", [key]),
		"message": sprintf("%s duration range %q is reversed", [key, entry.duration]),
	}
}
`,
	}
}

// nextSessionScopePolicy flags a multi-session plan whose next session has
// an empty scope.
func nextSessionScopePolicy() Policy {
	return Policy{
		Name:        "next-session-scope",
		Description: "Flags a next session whose scope has not been written",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"sessions", "handoff"},
		Rego: `package sessionforge.lint.next_scope

import rego.v1

deny contains finding if {
	s := input.config.session
	s.enabled
	s.current < s.total
	key := sprintf("session_%d", [s.current + 1])
	entry := s[key]
	trim_space(object.get(entry, "scope", "")) == ""
	finding := {
		"path": sprintf("session.%s.scope", [key]),
		"message": sprintf("%s has no scope, so the handoff section will be empty", [key]),
	}
}
`,
	}
}

// planModeReferencePolicy flags a plan_mode section with no reference.
func planModeReferencePolicy() Policy {
	return Policy{
		Name:        "plan-mode-reference",
		Description: "Flags plan_mode without a section reference",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"plan-mode"},
		Rego: `package sessionforge.lint.plan_mode

import rego.v1

deny contains finding if {
	pm := input.config.plan_mode
	trim_space(object.get(pm, "section_ref", "")) == ""
	finding := {
		"path": "plan_mode.section_ref",
		"message": "plan_mode is present but section_ref is empty",
		"remediation": "set plan_mode.section_ref or remove plan_mode",
	}
}
`,
	}
}

// apiSecurityReviewPolicy suggests a security review for API changes.
func apiSecurityReviewPolicy() Policy {
	return Policy{
		Name:        "api-security-review",
		Description: "Suggests a security review section when the API changes",
		Severity:    SeverityInfo,
		Enabled:     true,
		Tags:        []string{"context", "security"},
		Rego: `package sessionforge.lint.security

import rego.v1

deny contains finding if {
	input.config.context.has_api_changes
	not input.config.context.include_security_review
	finding := {
		"path": "context.include_security_review",
		"message": "has_api_changes is true but include_security_review is false",
	}
}
`,
	}
}
