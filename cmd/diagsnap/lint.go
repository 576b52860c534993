package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diagsnap/internal/fixture"
)

var lintCmd = &cobra.Command{
	Use:   "lint [flags] [root...]",
	Short: "Check blessed snapshots for formatting problems",
	Long:  "Parse every blessed snapshot under the test roots and report structural problems: CRLF line endings, malformed error codes, mismatched summary counts, and the like.",
	RunE:  lintExecution,
}

func lintExecution(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	paths, err := collectSnapshots(rootsFromArgs(cfg, args), cfg.Tests.FixtureExt)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no snapshots found")
		return nil
	}

	w := cmd.OutOrStdout()
	problemStyle := color.New(color.FgYellow)
	broken := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := fixture.Parse(data)
		if err != nil {
			color.New(color.FgRed).Fprintf(w, "%s: %v\n", path, err)
			broken++
			continue
		}
		problems := fixture.Lint(doc)
		if len(problems) == 0 {
			continue
		}
		broken++
		for _, p := range problems {
			problemStyle.Fprintf(w, "%s: %s\n", path, p)
		}
	}

	if broken > 0 {
		return fmt.Errorf("%d of %d snapshot(s) have problems", broken, len(paths))
	}
	fmt.Fprintf(w, "%d snapshot(s) clean\n", len(paths))
	return nil
}

// collectSnapshots walks the roots gathering every snapshot file.
func collectSnapshots(roots []string, fixtureExt string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), fixtureExt) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}
