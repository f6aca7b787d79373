package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".snapsense"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config is the CLI's persistent configuration: a set of named
// detector profiles, kubectl-context style.
type Config struct {
	// CurrentProfile is the name of the currently active profile
	CurrentProfile string `yaml:"current_profile,omitempty"`

	// Profiles maps profile name to detector configuration
	Profiles map[string]*Profile `yaml:"profiles,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Profile names one detector setup: which engine config and model to
// load, and where clips go.
type Profile struct {
	// Name is the profile name
	Name string `yaml:"name"`

	// Config is the engine config YAML path
	Config string `yaml:"config"`

	// Model is the classifier model YAML path (optional when the
	// engine config names one)
	Model string `yaml:"model,omitempty"`

	// Clips enables saving a WAV clip for each detected event
	Clips bool `yaml:"clips,omitempty"`

	// S3Bucket, when set, uploads clips to this bucket instead of
	// local disk
	S3Bucket string `yaml:"s3_bucket,omitempty"`

	// S3Prefix is the object key prefix for uploaded clips
	S3Prefix string `yaml:"s3_prefix,omitempty"`

	// Extra stores additional profile settings
	Extra map[string]string `yaml:"extra,omitempty"`
}

// LoadConfig loads or creates the configuration at the default path.
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath("")
}

// LoadConfigWithPath loads configuration from a custom path.
func LoadConfigWithPath(customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		Profiles:   make(map[string]*Profile),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create empty config file
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.configPath
}

// AddProfile adds a new profile.
func (c *Config) AddProfile(name string, p *Profile) error {
	p.Name = name
	c.Profiles[name] = p
	return c.Save()
}

// DeleteProfile removes a profile.
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return c.Save()
}

// UseProfile sets the current profile.
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns a specific profile.
func (c *Config) GetProfile(name string) (*Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// GetCurrentProfile returns the current profile.
func (c *Config) GetCurrentProfile() (*Profile, error) {
	if c.CurrentProfile == "" {
		return nil, fmt.Errorf("no current profile set")
	}
	return c.GetProfile(c.CurrentProfile)
}

// ResolveProfile returns the profile by name, or the current profile
// if name is empty.
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetCurrentProfile()
	}
	return c.GetProfile(name)
}

// ListProfiles returns all profile names.
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	return names
}

// GetExtra returns an extra value for the profile.
func (p *Profile) GetExtra(key string) string {
	if p.Extra == nil {
		return ""
	}
	return p.Extra[key]
}

// SetExtra sets an extra value for the profile.
func (p *Profile) SetExtra(key, value string) {
	if p.Extra == nil {
		p.Extra = make(map[string]string)
	}
	p.Extra[key] = value
}
