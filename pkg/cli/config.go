package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UserConfig represents ~/.recdiff/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile" json:"current_profile"`
	Profiles       map[string]Profile `yaml:"profiles" json:"profiles"`
}

// Profile represents a single named configuration profile.
type Profile struct {
	Output   string `yaml:"output,omitempty" json:"output,omitempty"`
	Keyword  string `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	Ignore   string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	PageSize int    `yaml:"page-size,omitempty" json:"page_size,omitempty"`
	Color    string `yaml:"color,omitempty" json:"color,omitempty"`
	LogLevel string `yaml:"log-level,omitempty" json:"log_level,omitempty"`
}

// profileKeys are the settable profile keys, see Profile.Get and Profile.Set.
var profileKeys = []string{"color", "ignore", "keyword", "log-level", "output", "page-size"}

// Get returns the value of key.
func (p Profile) Get(key string) (string, error) {
	switch key {
	case "output":
		return p.Output, nil
	case "keyword":
		return p.Keyword, nil
	case "ignore":
		return p.Ignore, nil
	case "page-size":
		if p.PageSize == 0 {
			return "", nil
		}
		return strconv.Itoa(p.PageSize), nil
	case "color":
		return p.Color, nil
	case "log-level":
		return p.LogLevel, nil
	default:
		return "", unknownKeyError(key)
	}
}

// Set validates value and stores it under key. An empty value clears the key.
func (p *Profile) Set(key, value string) error {
	switch key {
	case "output":
		if err := validateOutputFormat(value); err != nil {
			return err
		}
		p.Output = value
	case "keyword":
		p.Keyword = value
	case "ignore":
		p.Ignore = value
	case "page-size":
		if value == "" {
			p.PageSize = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("page-size must be a positive integer, got %q", value)
		}
		p.PageSize = n
	case "color":
		if value != "" {
			if err := validateColor(value); err != nil {
				return err
			}
		}
		p.Color = value
	case "log-level":
		p.LogLevel = value
	default:
		return unknownKeyError(key)
	}
	return nil
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown profile key %q: use one of %v", key, profileKeys)
}

// ActiveProfile returns the profile to use based on the override or
// current-profile. Only a named override must exist; a missing current
// profile yields an empty one.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	if override != "" {
		p, ok := c.Profiles[override]
		if !ok {
			return Profile{}, fmt.Errorf("profile %q not found", override)
		}
		return p, nil
	}
	return c.Profiles[c.CurrentProfile], nil
}

// ProfileNames returns the profile names, sorted.
func (c *UserConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ConfigDir returns the path to ~/.recdiff/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".recdiff")
}

// ConfigPath returns the path to ~/.recdiff/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads ~/.recdiff/config.yaml.
func LoadUserConfig() (*UserConfig, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	if cfg.CurrentProfile == "" {
		cfg.CurrentProfile = "default"
	}
	return &cfg, nil
}

// SaveUserConfig writes ~/.recdiff/config.yaml.
func SaveUserConfig(cfg *UserConfig) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}
