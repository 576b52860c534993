// Package config loads the diagsnap.toml project manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"diagsnap/internal/compare"
)

// DefaultFileName is looked up in the working directory when --config
// is not given.
const DefaultFileName = "diagsnap.toml"

var (
	// ErrNoCompilerCommand indicates [compiler].command is missing.
	ErrNoCompilerCommand = errors.New("missing [compiler].command")
	// ErrNoTestRoots indicates [tests].roots is empty.
	ErrNoTestRoots = errors.New("missing [tests].roots")
)

// Compiler configures the command whose stderr is under test.
type Compiler struct {
	// Command is the executable to run for every test.
	Command string `toml:"command"`
	// Args are passed to Command; the literal "{input}" expands to the
	// test's source file path.
	Args []string `toml:"args"`
	// Explain names the tool in rendered explain footers.
	Explain string `toml:"explain"`
}

// Tests configures snapshot discovery.
type Tests struct {
	Roots      []string `toml:"roots"`
	SourceExt  string   `toml:"source_ext"`
	FixtureExt string   `toml:"fixture_ext"`
}

// Compare configures the comparison strategy.
type Compare struct {
	Mode            string `toml:"mode"`
	StripTrailingWS bool   `toml:"strip_trailing_ws"`
}

// Run configures execution.
type Run struct {
	Jobs        int `toml:"jobs"`
	TimeoutSecs int `toml:"timeout_secs"`
}

// Config is the full manifest.
type Config struct {
	Compiler Compiler `toml:"compiler"`
	Tests    Tests    `toml:"tests"`
	Compare  Compare  `toml:"compare"`
	Run      Run      `toml:"run"`

	// Dir is the directory the manifest was loaded from; relative test
	// roots resolve against it.
	Dir string `toml:"-"`
}

// Default returns the configuration used when no manifest exists.
func Default() *Config {
	return &Config{
		Compiler: Compiler{Explain: "rustc"},
		Tests: Tests{
			Roots:      []string{"testdata/ui"},
			SourceExt:  ".rs",
			FixtureExt: ".stderr",
		},
		Compare: Compare{Mode: "normalized"},
		Run:     Run{TimeoutSecs: 30},
	}
}

// Load reads and validates a manifest file.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		return nil, fmt.Errorf("%s: unknown key %q", path, key)
	}
	cfg.Dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to defaults
// otherwise. An explicit path that does not exist is an error.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		cfg := Default()
		cfg.Dir = filepath.Dir(path)
		return cfg, nil
	}
	return Load(path)
}

// Validate checks invariants the rest of the harness relies on.
func (c *Config) Validate() error {
	if len(c.Tests.Roots) == 0 {
		return ErrNoTestRoots
	}
	if _, ok := compare.ParseMode(c.Compare.Mode); !ok {
		return fmt.Errorf("unknown compare mode %q (want exact or normalized)", c.Compare.Mode)
	}
	if c.Run.Jobs < 0 {
		return fmt.Errorf("negative jobs %d", c.Run.Jobs)
	}
	if c.Run.TimeoutSecs < 0 {
		return fmt.Errorf("negative timeout %d", c.Run.TimeoutSecs)
	}
	return nil
}

// RequireCompiler rejects configurations that cannot execute tests.
// Lint-only workflows never call this.
func (c *Config) RequireCompiler() error {
	if c.Compiler.Command == "" {
		return ErrNoCompilerCommand
	}
	return nil
}

// Mode returns the parsed comparison mode.
func (c *Config) Mode() compare.Mode {
	m, _ := compare.ParseMode(c.Compare.Mode)
	return m
}

// Timeout returns the per-test timeout, zero meaning none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Run.TimeoutSecs) * time.Second
}

// ResolveRoots returns test roots resolved against the manifest dir.
func (c *Config) ResolveRoots() []string {
	out := make([]string, 0, len(c.Tests.Roots))
	for _, root := range c.Tests.Roots {
		if !filepath.IsAbs(root) && c.Dir != "" {
			root = filepath.Join(c.Dir, root)
		}
		out = append(out, root)
	}
	return out
}
