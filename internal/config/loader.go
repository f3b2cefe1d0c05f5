package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".claritymark"

// Duration wraps time.Duration so config files can use readable forms
// like "10s" or "2m". Plain integers are accepted as nanoseconds for
// compatibility with yaml.v3's native encoding.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .claritymark configuration file.
type File struct {
	// Palette maps verdict slugs to marker background colors. Entries
	// are merged over the built-in defaults; the "default" slug styles
	// unknown verdicts.
	Palette map[string]string `yaml:"palette,omitempty"`

	// Fetch customizes page fetching.
	Fetch FetchFile `yaml:"fetch,omitempty"`

	// History customizes the run history database.
	History HistoryFile `yaml:"history,omitempty"`
}

// FetchFile holds fetch settings from the configuration file.
type FetchFile struct {
	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Timeout overrides the per-request timeout.
	Timeout Duration `yaml:"timeout,omitempty"`

	// MaxBodySize overrides the response body size limit in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// CacheMaxAge overrides how long cached fetches stay fresh.
	CacheMaxAge Duration `yaml:"cacheMaxAge,omitempty"`
}

// HistoryFile holds history database settings from the configuration file.
type HistoryFile struct {
	// Disabled turns the history database off.
	Disabled bool `yaml:"disabled,omitempty"`

	// Dir overrides the database directory.
	Dir string `yaml:"dir,omitempty"`
}

// LoadConfigFile loads settings from a YAML file. If the file does not
// exist, it returns ErrConfigNotFound. Callers should handle this error
// based on whether the path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .claritymark in the current directory
// 3. Look for .claritymark in the user's home directory
//
// Returns the path to the configuration file if found, or empty string
// if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply merges file settings into the config. Explicit zero values in
// the file leave the corresponding config defaults untouched.
func (cf *File) Apply(c *Config) {
	for slug, color := range cf.Palette {
		if c.Palette == nil {
			c.Palette = DefaultPalette()
		}
		c.Palette[slug] = color
	}
	if cf.Fetch.UserAgent != "" {
		c.UserAgent = cf.Fetch.UserAgent
	}
	if cf.Fetch.Timeout > 0 {
		c.Timeout = time.Duration(cf.Fetch.Timeout)
	}
	if cf.Fetch.MaxBodySize > 0 {
		c.MaxBodySize = cf.Fetch.MaxBodySize
	}
	if cf.Fetch.CacheMaxAge > 0 {
		c.CacheMaxAge = time.Duration(cf.Fetch.CacheMaxAge)
	}
	if cf.History.Disabled {
		c.NoHistory = true
	}
	if cf.History.Dir != "" {
		c.HistoryDir = cf.History.Dir
	}
}

// Claim is one entry of a claims list file: the excerpt to locate and
// the verdict or threat category that styles it.
type Claim struct {
	// Text is the claim or threat excerpt.
	Text string `yaml:"text"`

	// Verdict is the classification label. Empty defaults to
	// "suspicious", matching the analyzer's convention for flagged
	// content.
	Verdict string `yaml:"verdict,omitempty"`
}

// ClaimsFile is the YAML format consumed by batch runs: a list of
// claims applied to the same document, each producing an independent
// output.
type ClaimsFile struct {
	Claims []Claim `yaml:"claims"`
}

// LoadClaimsFile parses a claims list file.
func LoadClaimsFile(path string) (*ClaimsFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided claims path is intentional
	if err != nil {
		return nil, err
	}

	var cf ClaimsFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cf.Claims) == 0 {
		return nil, ErrNoClaims
	}
	for i := range cf.Claims {
		if cf.Claims[i].Verdict == "" {
			cf.Claims[i].Verdict = "suspicious"
		}
	}
	return &cf, nil
}
