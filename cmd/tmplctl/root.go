package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/tmplkit/internal/logging"
)

var (
	// Global flags
	verbose      bool
	quiet        bool
	jsonOut      bool
	configPath   string
	templatePath string
	supportPaths []string

	cfg      = defaultConfig()
	logger   = zap.NewNop()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "tmplctl",
	Short: "Inspect and edit Mac OS resources through TMPL templates",
	Long: `tmplctl decodes classic Mac OS resources into labelled fields using
ResEdit-style TMPL templates, and writes edited fields back to the resource
file. Templates come from TMPL resources in support files, YAML template
files, and the edited file itself.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tmplctl.yaml)")
	rootCmd.PersistentFlags().
		StringVarP(&templatePath, "template", "t", "", "Template file (.yaml or resource file with TMPL resources)")
	rootCmd.PersistentFlags().
		StringSliceVarP(&supportPaths, "support", "s", nil, "Extra template files or directories")
}

func defaultConfig() *Config {
	c, err := decodeConfig(newViper())
	if err != nil {
		return &Config{Format: "text"}
	}
	return c
}

// setup loads the config file and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	logger, closeLog = logging.New(logCfg, os.Stderr)
	logger.Debug("config loaded", zap.String("file", configPath), zap.Strings("support", cfg.Support))
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
