package check

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/tcheck/internal"
	"github.com/gnolang/tcheck/internal/match"
	"github.com/gnolang/tcheck/internal/parser"
	"github.com/gnolang/tcheck/scanner"
)

// DefaultConfigFile is the configuration file looked up by default.
const DefaultConfigFile = ".tcheck.yaml"

// Config represents the checker configuration.
type Config struct {
	Name       string   `yaml:"name"`
	Prefix     string   `yaml:"prefix"`
	Arch       string   `yaml:"arch,omitempty"`
	Debuggable bool     `yaml:"debuggable"`
	Partial    bool     `yaml:"partial"`
	Parallel   bool     `yaml:"parallel"`
	Extensions []string `yaml:"extensions"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Name:       "tcheck",
		Prefix:     parser.DefaultPrefix,
		Extensions: append([]string(nil), scanner.DefaultExtensions...),
	}
}

// LoadConfig reads a configuration file. Fields missing from the file keep
// their default values; a missing file yields the defaults.
func LoadConfig(configurationPath string) (Config, error) {
	config := DefaultConfig()
	if configurationPath == "" {
		return config, nil
	}

	f, err := os.Open(configurationPath)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("error in %s: %w", configurationPath, err)
	}
	return config, nil
}

// WriteConfig writes config as YAML to path.
func WriteConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Arch != "" && !slices.Contains(parser.Architectures, c.Arch) {
		return fmt.Errorf("unknown architecture %q", c.Arch)
	}
	return nil
}

// EngineConfig converts the configuration into engine settings.
func (c Config) EngineConfig() internal.EngineConfig {
	return internal.EngineConfig{
		Prefix: c.Prefix,
		Options: match.Options{
			Arch:       c.Arch,
			Debuggable: c.Debuggable,
			Partial:    c.Partial,
			Parallel:   c.Parallel,
		},
	}
}
