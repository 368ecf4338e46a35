// Package config loads the ".xgit-apply.yml" sidecar file that carries
// whitespace-rule globs, a default -p value, and include/exclude globs
// across invocations, the same way a project-local config file travels
// with a repository.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ximory/xgit-apply/internal/patch"
)

// WhitespaceRule pairs a glob with the rule bitmask (by name) it applies to
// matching paths.
type WhitespaceRule struct {
	Glob  string   `yaml:"glob"`
	Rules []string `yaml:"rules"`
}

// Config is the on-disk shape of ".xgit-apply.yml".
type Config struct {
	DefaultStrip      *int              `yaml:"default_strip"`
	DefaultWhitespace string            `yaml:"default_whitespace"`
	Whitespace        []WhitespaceRule  `yaml:"whitespace"`
	Include           []string          `yaml:"include"`
	Exclude           []string          `yaml:"exclude"`
}

// ruleNames maps the YAML rule vocabulary onto patch.WSRule bits.
var ruleNames = map[string]patch.WSRule{
	"trailing-space":    patch.WSTrailingSpace,
	"space-before-tab":  patch.WSSpaceBeforeTab,
	"indent-with-non-tab": patch.WSIndentWithNonTab,
	"tab-in-indent":     patch.WSTabInIndent,
	"cr-at-eol":         patch.WSCRAtEOL,
	"blank-at-eof":      patch.WSBlankAtEOF,
}

// Default returns an empty configuration equivalent to no sidecar file
// being present: default -p=1, warn-on-whitespace-error, no filters.
func Default() *Config {
	return &Config{}
}

// Load reads and parses path. A missing file is not an error: it returns
// Default() so callers can unconditionally call Load and then Apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// FindSidecar walks up from dir looking for ".xgit-apply.yml", returning ""
// if none is found before reaching the filesystem root.
func FindSidecar(dir string) string {
	for {
		candidate := filepath.Join(dir, ".xgit-apply.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Apply merges c's settings into opts: registered whitespace globs, the
// default strip count (set through SetPValue, replacing any value opts
// already holds, so a caller that wants -p to win sets it after Apply), the
// default whitespace policy, and include/exclude filters.
func (c *Config) Apply(opts *patch.Options) error {
	if c.DefaultStrip != nil {
		opts.SetPValue(*c.DefaultStrip)
	}
	if c.DefaultWhitespace != "" {
		policy, ok := patch.ParseWSPolicy(c.DefaultWhitespace)
		if !ok {
			return fmt.Errorf("unknown default_whitespace value %q", c.DefaultWhitespace)
		}
		opts.WSPolicy = policy
	}
	for _, wr := range c.Whitespace {
		var bits patch.WSRule
		for _, name := range wr.Rules {
			bit, ok := ruleNames[strings.ToLower(name)]
			if !ok {
				return fmt.Errorf("unknown whitespace rule %q", name)
			}
			bits |= bit
		}
		opts.AddWSGlob(wr.Glob, bits)
	}
	opts.Include = append(opts.Include, c.Include...)
	opts.Exclude = append(opts.Exclude, c.Exclude...)
	return nil
}

// WSRules implements patch.Config by exposing the glob table as a flat map,
// for collaborators that want a snapshot rather than Options' internal
// matching.
func (c *Config) WSRules() map[string]patch.WSRule {
	out := make(map[string]patch.WSRule, len(c.Whitespace))
	for _, wr := range c.Whitespace {
		var bits patch.WSRule
		for _, name := range wr.Rules {
			if bit, ok := ruleNames[strings.ToLower(name)]; ok {
				bits |= bit
			}
		}
		out[wr.Glob] = bits
	}
	return out
}
