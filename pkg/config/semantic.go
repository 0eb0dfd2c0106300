package config

import (
	"fmt"
	"strings"
)

// CheckSessions is the semantic pass over a schema-valid configuration. It
// looks for session bookkeeping that is inconsistent but not fatal and
// returns one warning per finding. It never fails.
func CheckSessions(cfg *Config) []string {
	s := &cfg.Session
	if !s.Enabled {
		return nil
	}

	var warnings []string

	if s.Current < 1 {
		warnings = append(warnings, "session.current is not set; it must be at least 1 when session.enabled is true")
	}
	if s.Total < 1 {
		warnings = append(warnings, "session.total is not set; it must be at least 1 when session.enabled is true")
	}
	if s.Current > s.Total && s.Total >= 1 {
		warnings = append(warnings, fmt.Sprintf(
			"session.current (%d) exceeds session.total (%d)", s.Current, s.Total))
	}

	for _, n := range s.Missing() {
		warnings = append(warnings, fmt.Sprintf(
			"%s is not defined but session.total is %d", SessionKey(n), s.Total))
	}

	for _, n := range s.Stray() {
		warnings = append(warnings, fmt.Sprintf(
			"%s is defined beyond session.total (%d)", SessionKey(n), s.Total))
	}

	if len(s.UnknownKeys) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"unrecognized session keys (expected session_<N>): %s", strings.Join(s.UnknownKeys, ", ")))
	}

	return warnings
}
