package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultAddr           = ":5001"
	DefaultWorkers        = 4
	DefaultMinSources     = 2
	DefaultMaxSources     = 20
	DefaultMaxSourceBytes = 50 << 20
	DefaultOutputName     = "merged.pptx"
)

// Config holds service-level settings loaded from deckmerge.yml.
type Config struct {
	Addr           string   `yaml:"addr,omitempty"`
	Workers        int      `yaml:"workers,omitempty"`
	MinSources     int      `yaml:"minSources,omitempty"`
	MaxSources     int      `yaml:"maxSources,omitempty"`
	MaxSourceBytes int64    `yaml:"maxSourceBytes,omitempty"`
	AllowedHosts   []string `yaml:"allowedHosts,omitempty"`
	AllowLocal     bool     `yaml:"allowLocal,omitempty"`
	OutputName     string   `yaml:"outputName,omitempty"`
	Verbose        bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read deckmerge.yml or deckmerge.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"deckmerge.yml", "deckmerge.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &Config{}, nil
}

// WithDefaults returns a copy of c with every unset field filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.MinSources <= 0 {
		c.MinSources = DefaultMinSources
	}
	if c.MaxSources <= 0 {
		c.MaxSources = DefaultMaxSources
	}
	if c.MaxSourceBytes <= 0 {
		c.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if c.OutputName == "" {
		c.OutputName = DefaultOutputName
	}
	return c
}
