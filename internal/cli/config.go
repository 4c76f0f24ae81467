package cli

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toyz/docnote/internal/errors"
	"github.com/toyz/docnote/pkg/annotations"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

var formats = []string{FormatTable, FormatJSON}

// Config holds the configuration for the CLI runner. It can be read from a
// YAML file; command-line flags override file values.
type Config struct {
	// Dir is the directory package patterns are resolved in
	Dir string `yaml:"dir"`

	// Patterns are Go package patterns to load, "./..." by default
	Patterns []string `yaml:"patterns"`

	// Targets restricts output to "[pkg:]Type[.Member]" specs. Empty means
	// every annotated target.
	Targets []string `yaml:"targets"`

	// Format is "table" or "json"
	Format string `yaml:"format"`

	// CacheDir enables the persistent file cache
	CacheDir string `yaml:"cache_dir"`

	// Rules maps annotation names to value kinds
	Rules map[string]string `yaml:"rules"`

	// Tests also loads _test.go files
	Tests bool `yaml:"tests"`

	Verbose bool `yaml:"-"`
	Quiet   bool `yaml:"-"`
}

// DefaultConfig returns the configuration used when no file or flag sets a value
func DefaultConfig() *Config {
	return &Config{
		Dir:      ".",
		Patterns: []string{"./..."},
		Format:   FormatTable,
		Rules:    make(map[string]string),
	}
}

// LoadConfigFile reads a YAML configuration file on top of the defaults.
// Unknown keys are rejected.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapConfigurationError(path, "parse", err).
			WithSuggestion("Known keys: dir, patterns, targets, format, cache_dir, rules, tests")
	}

	if cfg.Rules == nil {
		cfg.Rules = make(map[string]string)
	}
	return cfg, nil
}

// AddRules parses "name=kind" pairs into the rule map, replacing rules
// already configured for the same name
func (c *Config) AddRules(pairs []string) error {
	for _, pair := range pairs {
		name, kind, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return errors.ConfigurationError("rule", fmt.Sprintf("invalid rule %q", pair)).
				WithSuggestion("Rules are written as name=kind, for example --rule port=int")
		}
		if c.Rules == nil {
			c.Rules = make(map[string]string)
		}
		c.Rules[name] = strings.TrimSpace(kind)
	}
	return nil
}

// Validate checks formats and rule kinds, collecting every problem
func (c *Config) Validate() error {
	errs := &errors.MultipleErrors{}

	if !slices.Contains(formats, c.Format) {
		errs.Add(errors.ConfigurationError("format", fmt.Sprintf("unsupported format %q", c.Format)).
			WithSuggestion("Use one of: " + strings.Join(formats, ", ")))
	}

	if len(c.Patterns) == 0 {
		errs.Add(errors.ConfigurationError("patterns", "at least one package pattern is required").
			WithSuggestion("Use ./... to load every package of the module"))
	}

	names := make([]string, 0, len(c.Rules))
	for name := range c.Rules {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, err := annotations.ParseKind(c.Rules[name]); err != nil {
			errs.Add(errors.WrapConfigurationError("rules", "validate rule '"+name+"' in", err).
				WithSuggestion("Kinds: string, integer, float, boolean, list, map, null"))
		}
	}

	for _, spec := range c.Targets {
		if _, err := ParseTargetSpec(spec); err != nil {
			errs.Add(errors.WrapConfigurationError("targets", "validate", err))
		}
	}

	return errs.ErrOrNil()
}

// RuleSet builds the rule set described by the configuration
func (c *Config) RuleSet() (*annotations.RuleSet, error) {
	kinds := make(map[string]annotations.Kind, len(c.Rules))
	for name, kindName := range c.Rules {
		kind, err := annotations.ParseKind(kindName)
		if err != nil {
			return nil, errors.WrapConfigurationError("rules", "build", err)
		}
		kinds[name] = kind
	}
	return annotations.RulesOf(kinds)
}
