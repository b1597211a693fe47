package config

// Config is the application configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Trello  TrelloConfig  `json:"trello"`
	Sync    SyncConfig    `json:"sync"`

	// Scheduler is only consulted in daemon mode; one-shot runs ignore it.
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`

	// History controls the optional run-history store.
	History *HistoryConfig `json:"history,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console *bool             `json:"console,omitempty"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// TrelloConfig locates credentials and tunes the API client.
//
// Credentials resolve in this order (later wins):
//  1. inline api_key/token
//  2. secrets_file: a JSON/YAML file with {"api_key": ..., "token": ...}
//  3. TRELLO_API_KEY / TRELLO_TOKEN environment variables
type TrelloConfig struct {
	APIKey      string `json:"api_key,omitempty"`
	Token       string `json:"token,omitempty"`
	SecretsFile string `json:"secrets_file,omitempty"`

	// BaseURL overrides the API endpoint; mainly for tests.
	BaseURL string `json:"base_url,omitempty"`

	// Timeout bounds each request. Default "60s".
	Timeout string `json:"timeout,omitempty"`

	// RatePerSec caps outbound requests per second. Default 8.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// SyncConfig tunes rule evaluation.
type SyncConfig struct {
	// RulesPath is the rules file (JSON or YAML). Overridable via -rules.
	RulesPath string `json:"rules_path,omitempty"`

	// DueTime is the time-of-day attached to due dates, "HH:MM". Default "09:00".
	DueTime string `json:"due_time,omitempty"`

	// Timezone is the IANA zone due times are interpreted in, e.g. "Europe/Madrid".
	// Empty means the process-local zone.
	Timezone string `json:"timezone,omitempty"`
}

// SchedulerConfig controls when daemon mode triggers a run.
type SchedulerConfig struct {
	// Schedule accepts a cron expression ("0 7 * * *"), a duration ("24h"),
	// or an HH:MM interval. Default "@daily".
	Schedule string `json:"schedule,omitempty"`

	// Timezone for cron evaluation; empty means local.
	Timezone string `json:"timezone,omitempty"`
}

// HistoryConfig controls the optional persistence layer.
//
// Example:
//
//	"history": { "driver": "file", "path": "./recurrent_history" }
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
