// Command photoqc validates photos against civic documentation quality rules.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Skryldev/photo-quality/config"
	"github.com/Skryldev/photo-quality/hooks"
)

// errRejected signals that at least one photo failed validation.  It maps to
// exit status 2 so scripts can tell rejections from operational errors.
var errRejected = errors.New("one or more photos were rejected")

// Global flags shared by every command.
var (
	configFile string
	outputJSON bool
	noColor    bool
	logLevel   string
)

func main() {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errRejected):
		os.Exit(2)
	default:
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "photoqc",
		Short: "Score photos for civic documentation quality",
		Long: `photoqc checks photos for sharpness, resolution, brightness, exposure and
EXIF completeness, and prints a PASS/FAIL verdict with recommendations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default photoqc.yaml)")
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newRulesCmd())
	return root
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	l, err := hooks.NewProductionLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}
