package rules

import (
	"fmt"
	"os"
	"strings"

	"recurrent/internal/config"
)

// Load reads a rules file (JSON or YAML) and validates every rule.
// Any malformed rule is fatal here, before any network activity.
func Load(path string) ([]Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, b)
}

// Parse decodes and validates rules from raw file contents.
// The path only informs format detection (.yaml/.yml vs JSON) and errors.
func Parse(path string, data []byte) ([]Rule, error) {
	var ruleset []Rule
	if err := config.DecodeStrict(path, data, &ruleset); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	for i, r := range ruleset {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rules %s: rule %d: %w", path, i, err)
		}
	}
	return ruleset, nil
}

// Validate checks structural invariants of a single rule.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.Destination) == "" {
		return fmt.Errorf("destination is required (rule %q)", r.Name)
	}
	if r.Month != nil && (*r.Month < 1 || *r.Month > 12) {
		return fmt.Errorf("rule %q: month %d out of range 1..12", r.Name, *r.Month)
	}
	if r.Day != nil && (*r.Day < 1 || *r.Day > 31) {
		return fmt.Errorf("rule %q: day %d out of range 1..31", r.Name, *r.Day)
	}
	if r.Weekday != nil && (*r.Weekday < 0 || *r.Weekday > 6) {
		return fmt.Errorf("rule %q: weekday %d out of range 0..6 (0=Monday)", r.Name, *r.Weekday)
	}
	return nil
}
