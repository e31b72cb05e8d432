package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pagebinder/pkg/types"
)

// Configuration keys, as they appear in pagebinder.yaml. Environment
// variables use the PAGEBINDER_ prefix with dots replaced by underscores
// (e.g. PAGEBINDER_HARVEST_CONCURRENCY).
const (
	keyFolder      = "working_folder"
	keyOutput      = "output_path"
	keyLedger      = "ledger"
	keyTimeout     = "harvest.timeout"
	keyUserAgent   = "harvest.user_agent"
	keyConcurrency = "harvest.concurrency"
	keyExtension   = "harvest.extension"
	keyBaseURL     = "harvest.base_url"
	keyProgress    = "harvest.progress"
	keyTitle       = "assembly.title"
)

const defaultTimeout = 60 * time.Second

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"folder":      keyFolder,
	"output":      keyOutput,
	"ledger":      keyLedger,
	"timeout":     keyTimeout,
	"user-agent":  keyUserAgent,
	"concurrency": keyConcurrency,
	"extension":   keyExtension,
	"base-url":    keyBaseURL,
	"progress":    keyProgress,
	"title":       keyTitle,
}

func init() {
	viper.SetDefault(keyFolder, types.DefaultWorkingFolder)
	viper.SetDefault(keyOutput, types.DefaultOutputPath)
	viper.SetDefault(keyTimeout, defaultTimeout)
	viper.SetDefault(keyUserAgent, types.DefaultUserAgent)
	viper.SetDefault(keyConcurrency, 1)
	viper.SetDefault(keyExtension, types.DefaultExtension)
}

func addFolderFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("folder", "f", types.DefaultWorkingFolder, "working folder for downloaded images")
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", types.DefaultOutputPath, "output PDF path")
	cmd.Flags().String("title", "", "document title")
}

func addHarvestFlags(cmd *cobra.Command) {
	cmd.Flags().String("html", "", "HTML file listing the page images (- for stdin)")
	cmd.Flags().String("url", "", "fetch the HTML from this URL; also the base for relative image sources")
	cmd.Flags().String("base-url", "", "resolve relative image sources against this URL")
	cmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout (0 disables)")
	cmd.Flags().String("user-agent", types.DefaultUserAgent, "User-Agent header for HTTP requests")
	cmd.Flags().IntP("concurrency", "c", 1, "number of parallel downloads")
	cmd.Flags().String("extension", types.DefaultExtension, "file extension for saved images")
	cmd.Flags().Bool("progress", false, "show a download progress bar on stderr")
}

func addLedgerFlag(cmd *cobra.Command) {
	cmd.Flags().String("ledger", "", "SQLite database recording each run (disabled when empty)")
}

// bindFlags binds the flags defined on cmd to their configuration keys so
// an explicit flag overrides the environment and config file.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// loadPipelineConfig builds the pipeline configuration from viper.
func loadPipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		WorkingFolder: viper.GetString(keyFolder),
		OutputPath:    viper.GetString(keyOutput),
		LedgerPath:    viper.GetString(keyLedger),
		Harvest: types.HarvestConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration(keyTimeout),
				UserAgent: viper.GetString(keyUserAgent),
			},
			BaseURL:     viper.GetString(keyBaseURL),
			Concurrency: viper.GetInt(keyConcurrency),
			Extension:   viper.GetString(keyExtension),
			Progress:    viper.GetBool(keyProgress),
		},
		Assembly: types.AssemblyConfig{
			Title:        viper.GetString(keyTitle),
			CreationDate: sourceDateEpoch(),
		},
	}
	return cfg.Normalize()
}

// sourceDateEpoch reads SOURCE_DATE_EPOCH for reproducible output. An unset
// or invalid value yields the zero time.
func sourceDateEpoch() time.Time {
	v := os.Getenv("SOURCE_DATE_EPOCH")
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring invalid SOURCE_DATE_EPOCH %q\n", v)
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
