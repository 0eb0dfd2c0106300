// Package policy runs advisory lint policies, written in Rego, over a raw
// configuration document.
//
// Policies are evaluated with Open Policy Agent. Each policy module defines
// a `deny` set; every element becomes a Finding. Findings are always
// warnings: they are reported next to the semantic session warnings and
// never make validation fail.
//
// # Input
//
// Every policy receives:
//
//	input.config   the configuration document as parsed
//	input.context  {"operation": "validate", "config_path": ..., "timestamp": ...}
//
// # Writing policies
//
// A deny element is either a string or an object:
//
//	package team.lint
//
//	import rego.v1
//
//	deny contains finding if {
//		input.config.models.feature_implementer == "haiku"
//		finding := {
//			"path": "models.feature_implementer",
//			"message": "haiku is too small for implementation work",
//			"remediation": "use sonnet or opus",
//		}
//	}
//
// Files are loaded with Engine.LoadPolicies from .rego files (named after the
// file) or JSON policy definitions. A loaded policy with the same name as a
// built-in replaces it.
//
// # Built-in policies
//
//   - session-file-count: a session touching more than 15 files
//   - session-duration: an upper estimate above 8 hours, or a reversed range
//   - next-session-scope: the next session has an empty scope
//   - plan-mode-reference: plan_mode without section_ref
//   - api-security-review: API changes without a security review section
package policy
