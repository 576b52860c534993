package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diagsnap/internal/config"
)

// applyColorMode wires the --color flag into fatih/color's global switch.
func applyColorMode(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("unknown color mode %q (auto|on|off)", mode)
	}
	return nil
}

// loadProjectConfig loads the manifest named by --config, falling back
// to defaults when the default file is absent.
func loadProjectConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	explicit := cmd.Root().PersistentFlags().Changed("config")
	return config.LoadOrDefault(path, explicit)
}

// newLogger builds the command logger: a development logger under
// --verbose, a no-op one otherwise.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// stateDir returns the per-user directory for the cache and history db.
func stateDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "diagsnap")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// rootsFromArgs prefers explicit command-line paths over config roots.
func rootsFromArgs(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.ResolveRoots()
}
