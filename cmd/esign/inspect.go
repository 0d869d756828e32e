package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quillsign/esign/internal/document"
	"github.com/quillsign/esign/internal/logger"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <document>",
	Short: "Show document structure without modifying it",
	Long: `Load a document and print its kind, page count, and page dimensions.

Useful for finding placement coordinates before writing a manifest.

Examples:
  esign inspect contract.pdf
  esign inspect scan.png`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	if err := logger.Init(&logger.Config{
		Level:  viper.GetString("log-level"),
		Format: "console",
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	inputPath := args[0]
	mime, err := mimeFromPath(inputPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	doc, err := document.Load(filepath.Base(inputPath), data, mime)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	fmt.Printf("%s\n", doc.Name)
	fmt.Printf("  Kind:  %s\n", doc.Kind)
	fmt.Printf("  Pages: %d\n", doc.PageCount)
	for i, dim := range doc.PageDims {
		fmt.Printf("  Page %d: %.1f x %.1f\n", i+1, dim.Width, dim.Height)
	}
	return nil
}
