package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load reads and strictly decodes the config file, then resolves credentials.
// Validation failures here are fatal before any network activity happens.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := DecodeStrict(path, b, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.resolveCredentials(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type secrets struct {
	APIKey string `json:"api_key"`
	Token  string `json:"token"`
}

func (c *Config) resolveCredentials() error {
	if path := strings.TrimSpace(c.Trello.SecretsFile); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("secrets file: %w", err)
		}
		var s secrets
		if err := DecodeStrict(path, b, &s); err != nil {
			return fmt.Errorf("secrets file %s: %w", path, err)
		}
		if s.APIKey != "" {
			c.Trello.APIKey = s.APIKey
		}
		if s.Token != "" {
			c.Trello.Token = s.Token
		}
	}

	// Environment wins over files.
	if v := os.Getenv("TRELLO_API_KEY"); v != "" {
		c.Trello.APIKey = v
	}
	if v := os.Getenv("TRELLO_TOKEN"); v != "" {
		c.Trello.Token = v
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Trello.APIKey) == "" || strings.TrimSpace(c.Trello.Token) == "" {
		return fmt.Errorf("trello credentials missing (set trello.api_key/token, a secrets_file, or TRELLO_API_KEY/TRELLO_TOKEN)")
	}
	if _, _, err := ParseDueTime(c.Sync.DueTime); err != nil {
		return err
	}
	if _, err := ParseDurationOrDefault("trello.timeout", c.Trello.Timeout, 60*time.Second); err != nil {
		return err
	}
	if tz := strings.TrimSpace(c.Sync.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("sync.timezone: %w", err)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout with the 60s default applied.
func (c *Config) RequestTimeout() time.Duration {
	d, err := ParseDurationOrDefault("trello.timeout", c.Trello.Timeout, 60*time.Second)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Location resolves sync.timezone, falling back to the process-local zone.
func (c *Config) Location() *time.Location {
	tz := strings.TrimSpace(c.Sync.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// ParseDueTime parses an "HH:MM" string; empty means the 09:00 default.
func ParseDueTime(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 9, 0, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("sync.due_time: want HH:MM, got %q", raw)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("sync.due_time: want HH:MM, got %q", raw)
	}
	return h, m, nil
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
