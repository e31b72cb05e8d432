package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pagebinder/internal/assemble"
	"github.com/pdiddy/pagebinder/internal/harvest"
	"github.com/pdiddy/pagebinder/internal/workdir"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Empty the working folder",
	Long: `Reset removes the files and empty subdirectories directly inside the
working folder. Non-empty subdirectories are left in place and reported.
A missing folder is not an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		cfg := loadPipelineConfig()

		result, err := workdir.Reset(cfg.WorkingFolder, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries from %s (%d could not be removed)\n",
			len(result.Removed), cfg.WorkingFolder, len(result.Failed))
		return nil
	},
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Download the listed page images into the working folder",
	Long: `Harvest parses the HTML page list, downloads each page image into the
working folder as <page>.png, and writes pages.yaml describing the saved
images in page order. The folder is not reset first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		cfg := loadPipelineConfig()
		client := harvest.NewClient(cfg.Harvest.HTTPConfig)

		markup, source, err := loadMarkup(cmd, client, &cfg.Harvest)
		if err != nil {
			return err
		}

		result, err := harvest.Harvest(cmd.Context(), client, bytes.NewReader(markup), cfg.Harvest, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		manifestPath := filepath.Join(cfg.WorkingFolder, harvest.ManifestFile)
		if err := harvest.WriteManifest(result.Manifest(source, cfg.WorkingFolder), manifestPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "manifest: %s\n", manifestPath)

		if result.HasFailures() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d page(s) could not be downloaded\n", len(result.Failed))
		}
		return nil
	},
}

var assembleCmd = &cobra.Command{
	Use:   "assemble [images...]",
	Short: "Bind page images into a single PDF",
	Long: `Assemble binds the given images into the output PDF in argument order.
Without arguments it reads the manifest written by harvest (pages.yaml in
the working folder, or the file named by --manifest) and uses its page order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		cfg := loadPipelineConfig()

		paths := args
		if len(paths) == 0 {
			manifestPath, _ := cmd.Flags().GetString("manifest")
			if manifestPath == "" {
				manifestPath = filepath.Join(cfg.WorkingFolder, harvest.ManifestFile)
			}
			m, err := harvest.ReadManifest(manifestPath)
			if err != nil {
				return fmt.Errorf("reading manifest: %w", err)
			}
			paths = m.Paths()
		}

		_, err := assemble.Assemble(paths, cfg.Assembly, cmd.OutOrStdout())
		return err
	},
}

func init() {
	addFolderFlag(resetCmd)

	addHarvestFlags(harvestCmd)
	addFolderFlag(harvestCmd)

	addFolderFlag(assembleCmd)
	addOutputFlag(assembleCmd)
	assembleCmd.Flags().String("manifest", "", "manifest listing the pages (default: <folder>/pages.yaml)")

	rootCmd.AddCommand(resetCmd, harvestCmd, assembleCmd)
}
