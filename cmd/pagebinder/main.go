// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pagebinder CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pagebinder CLI.
var rootCmd = &cobra.Command{
	Use:   "pagebinder",
	Short: "Bind page images listed in an HTML document into one PDF",
	Long: `pagebinder reads an HTML document whose list items each carry a page
image and a page-number label, downloads every image into a working folder,
orders the images by page number, and binds them into a single PDF.

Each stage is a subcommand: reset, harvest, and assemble. The run command
performs all three in order.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pagebinder.yaml or ~/.config/pagebinder/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pagebinder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pagebinder"))
		}
	}

	viper.SetEnvPrefix("PAGEBINDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
