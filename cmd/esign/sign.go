package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quillsign/esign/internal/config"
	"github.com/quillsign/esign/internal/logger"
	"github.com/quillsign/esign/internal/session"
)

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign <document>",
	Short: "Burn manifest elements into a document",
	Long: `Load a document, place the elements described in a YAML manifest,
and write the flattened result.

The manifest lists elements with kind, page, position, and content:

  elements:
    - kind: signature
      page: 1
      x: 100
      y: 700
      width: 200
      height: 80
      image: signature.png
    - kind: text
      text: Approved
      x: 100
      y: 100
    - kind: date
      page: 2
    - kind: checkbox
      x: 40
      y: 40
      checked: true

Typed signatures use text and an optional style instead of an image:

  elements:
    - kind: signature
      text: Jane Example
      style: elegant

Examples:
  # Sign a contract, writing signed_contract.pdf alongside it
  esign sign contract.pdf --manifest placements.yaml

  # Write to an explicit path
  esign sign contract.pdf --manifest placements.yaml --output /tmp/out.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringP("manifest", "m", "", "YAML manifest of elements to place (required)")
	signCmd.Flags().StringP("output", "o", "", "output path (default: signed_<name> next to the input)")
	signCmd.Flags().Bool("strict", false, "fail on the first bad element instead of skipping it")
	_ = signCmd.MarkFlagRequired("manifest")
	_ = viper.BindPFlag("strict", signCmd.Flags().Lookup("strict"))
}

func runSign(cmd *cobra.Command, args []string) error {
	if err := logger.Init(&logger.Config{
		Level:  viper.GetString("log-level"),
		Format: "console",
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Get()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if viper.GetBool("strict") {
		cfg.AbortOnBadElement = true
	}

	inputPath := args[0]
	manifestPath, _ := cmd.Flags().GetString("manifest")
	outputPath, _ := cmd.Flags().GetString("output")

	mime, err := mimeFromPath(inputPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	m, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	sess := session.New(cfg)
	doc, err := sess.LoadDocument(filepath.Base(inputPath), data, mime)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	log.WithDocumentID(doc.ID).WithFields("pages", doc.PageCount, "kind", string(doc.Kind)).Info("Document loaded")

	store := sess.Store()
	for i, entry := range m.Elements {
		spec, err := entry.toSpec(cfg, filepath.Dir(manifestPath))
		if err != nil {
			return fmt.Errorf("manifest element %d: %w", i+1, err)
		}
		page := entry.Page
		if page == 0 {
			page = 1
		}
		if err := store.SetCurrentPage(page); err != nil {
			return fmt.Errorf("manifest element %d: %w", i+1, err)
		}
		if _, err := store.AddElement(spec); err != nil {
			return fmt.Errorf("manifest element %d: %w", i+1, err)
		}
	}

	res, err := sess.Download(context.Background())
	if err != nil {
		return fmt.Errorf("compositing: %w", err)
	}
	for _, skipped := range res.Skipped {
		log.WithElementID(skipped.ElementID).WithPage(skipped.Page).Warn("Skipped element: " + skipped.Reason)
	}

	if outputPath == "" {
		outputPath = filepath.Join(filepath.Dir(inputPath), res.Filename)
	}
	if err := os.WriteFile(outputPath, res.Data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	log.WithFields("output", outputPath, "placed", len(res.Placed), "skipped", len(res.Skipped)).Info("Document signed")
	fmt.Printf("Wrote %s (%d elements placed, %d skipped)\n", outputPath, len(res.Placed), len(res.Skipped))
	return nil
}
