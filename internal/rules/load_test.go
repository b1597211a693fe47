package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "rules.json", `[
		{"name": "Weekly Review", "destination": "list-a", "weekday": 4, "due_offset": 0},
		{"name": "Rent", "destination": "list-b", "day": 1}
	]`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rules, want 2", len(got))
	}
	if got[0].Name != "Weekly Review" || got[0].Weekday == nil || *got[0].Weekday != 4 {
		t.Fatalf("unexpected rule %+v", got[0])
	}
	if got[0].DueOffset == nil || *got[0].DueOffset != 0 {
		t.Fatalf("due_offset not parsed: %+v", got[0])
	}
	if got[1].Year != nil || got[1].Month != nil || got[1].Weekday != nil {
		t.Fatalf("absent fields must stay nil: %+v", got[1])
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "rules.yaml", strings.Join([]string{
		`- name: Standup`,
		`  destination: list-a`,
		`  weekday: 0`,
		`- name: Backup check`,
		`  destination: list-b`,
	}, "\n"))

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rules, want 2", len(got))
	}
	if got[0].Weekday == nil || *got[0].Weekday != 0 {
		t.Fatalf("yaml weekday not parsed: %+v", got[0])
	}
}

func TestLoadNullFieldIsWildcard(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "rules.json", `[{"name": "r", "destination": "d", "weekday": null}]`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got[0].Weekday != nil {
		t.Fatalf("explicit null must decode as wildcard, got %v", *got[0].Weekday)
	}
}

func TestLoadRejectsMalformedRules(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "empty name", file: "r.json", content: `[{"name": "", "destination": "d"}]`},
		{name: "missing destination", file: "r.json", content: `[{"name": "x"}]`},
		{name: "weekday out of range", file: "r.json", content: `[{"name": "x", "destination": "d", "weekday": 7}]`},
		{name: "negative weekday", file: "r.json", content: `[{"name": "x", "destination": "d", "weekday": -1}]`},
		{name: "month out of range", file: "r.json", content: `[{"name": "x", "destination": "d", "month": 13}]`},
		{name: "day out of range", file: "r.json", content: `[{"name": "x", "destination": "d", "day": 0}]`},
		{name: "wrong field type", file: "r.json", content: `[{"name": "x", "destination": "d", "weekday": "friday"}]`},
		{name: "unknown field", file: "r.json", content: `[{"name": "x", "destination": "d", "weekdy": 4}]`},
		{name: "trailing data", file: "r.json", content: `[] []`},
		{name: "not a list", file: "r.json", content: `{"name": "x"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, tt.file, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
