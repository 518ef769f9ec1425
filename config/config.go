// Package config defines the application configuration for the heatspace
// client: requester identity, registry presets, and the polling and fetch
// parameters.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Defaults applied by Load when fields are absent.
const (
	DefaultRequesterName    = "Smart City Urban Heat Monitoring"
	DefaultRequesterContact = "noreply@smartcityurbanheatmonitoring.local"
	DefaultPollInterval     = 30 * time.Second
	DefaultFetchTimeout     = 30 * time.Second
	DefaultStatePath        = "request-state.json"
)

// DefaultRegistryPresets is the fixed public registry list scanned when
// the requester profile configures none.
var DefaultRegistryPresets = []string{
	"https://tmdt-solid-community-server.de/semanticdatacatalog/public/stadt-wuppertal",
	"https://tmdt-solid-community-server.de/semanticdatacatalog/public/dace",
	"https://tmdt-solid-community-server.de/semanticdatacatalog/public/timberconnect",
}

// Config is the complete application configuration.
type Config struct {
	// RequesterWebID identifies this application in the data space.
	RequesterWebID string `json:"requester_web_id"`
	// RequesterName and RequesterContact are embedded in every access
	// request resource.
	RequesterName    string `json:"requester_name,omitempty"`
	RequesterContact string `json:"requester_contact,omitempty"`
	// RegistryPresets is the fallback registry list.
	RegistryPresets []string `json:"registry_presets,omitempty"`
	// PollIntervalSeconds is the fixed decision poll interval.
	PollIntervalSeconds int `json:"poll_interval_seconds,omitempty"`
	// FetchTimeoutSeconds bounds every remote request.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds,omitempty"`
	// StatePath is the file holding the persisted request-state map.
	StatePath string `json:"state_path,omitempty"`
}

// Load reads a configuration file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills absent fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.RequesterName == "" {
		c.RequesterName = DefaultRequesterName
	}
	if c.RequesterContact == "" {
		c.RequesterContact = DefaultRequesterContact
	}
	if len(c.RegistryPresets) == 0 {
		c.RegistryPresets = append([]string(nil), DefaultRegistryPresets...)
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = int(DefaultPollInterval / time.Second)
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = int(DefaultFetchTimeout / time.Second)
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStatePath
	}
}

// Validate checks the configuration for startup-fatal problems.
func (c *Config) Validate() error {
	if c.RequesterWebID == "" {
		return fmt.Errorf("config: requester_web_id is required")
	}
	if _, err := url.ParseRequestURI(c.RequesterWebID); err != nil {
		return fmt.Errorf("config: requester_web_id is not a valid URL: %w", err)
	}
	for _, preset := range c.RegistryPresets {
		if _, err := url.ParseRequestURI(preset); err != nil {
			return fmt.Errorf("config: registry preset %q is not a valid URL: %w", preset, err)
		}
	}
	return nil
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}
