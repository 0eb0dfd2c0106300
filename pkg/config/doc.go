// Package config defines the typed configuration document and the semantic
// checks that run after schema validation.
//
// # Overview
//
// A configuration document has fixed top-level sections: component, session,
// paths, github, context, models and plan_mode. The JSON Schema for the
// document is embedded as DefaultSchema and is the source of truth for
// structural rules; Decoder mirrors those rules with struct tags so a looser
// custom schema cannot produce a Config the rest of the pipeline would
// mishandle.
//
// # Sessions
//
// The document spells sessions as numbered keys:
//
//	session:
//	  enabled: true
//	  current: 2
//	  total: 3
//	  session_1: {...}
//	  session_2: {...}
//
// SessionBlock holds them as an ordered list where Entries[N-1] is session N.
// Lookups go through Entry, which is bounds-checked and reports absence
// instead of probing keys.
//
// # Semantic checks
//
// CheckSessions is a separate pass over a decoded Config. Its findings are
// warnings, never errors:
//
//   - session.current greater than session.total
//   - a session_<N> missing for some N in 1..total
//   - a session_<N> defined with N greater than total
//   - keys under session that are not session_<N>
package config
