package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"diagsnap/internal/diag"
	"diagsnap/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [flags] <diagnostics.json>",
	Short: "Render a diagnostics document as snapshot text",
	Long:  "Read a JSON diagnostics document, resolve its spans against the referenced source files, and print the snapshot rendering to stdout. Pass \"-\" to read the document from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  renderExecution,
}

func init() {
	renderCmd.Flags().String("root", "", "directory replaced by $DIR in pointer paths")
	renderCmd.Flags().Bool("real-lines", false, "emit real line numbers instead of the LL gutter")
	renderCmd.Flags().Bool("no-summary", false, "omit the aborting summary and explain footer")
}

func renderExecution(cmd *cobra.Command, args []string) error {
	if err := applyColorMode(cmd); err != nil {
		return err
	}

	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	realLines, err := cmd.Flags().GetBool("real-lines")
	if err != nil {
		return err
	}
	noSummary, err := cmd.Flags().GetBool("no-summary")
	if err != nil {
		return err
	}

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	data, baseDir, err := readDocument(args[0])
	if err != nil {
		return err
	}

	bag, files, err := diag.DecodeDocument(data, baseDir)
	if err != nil {
		return fmt.Errorf("decode diagnostics document: %w", err)
	}
	bag.Sort()

	return render.Render(cmd.OutOrStdout(), bag, files, render.Options{
		Root:            root,
		ExplainCommand:  cfg.Compiler.Explain,
		RealLineNumbers: realLines,
		NoSummary:       noSummary,
	})
}

// readDocument loads the document bytes and decides the directory that
// relative source paths inside it resolve against.
func readDocument(path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", err
		}
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		return data, wd, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Dir(path), nil
}
