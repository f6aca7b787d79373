package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapsense/snapsense/pkg/cli"
)

var (
	// Global flags
	verbose     bool
	profileName string
	configPath  string
	outputFlag  string

	// Global configuration (loaded at init time)
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "snapsense",
	Short: "Gesture event detection engine",
	Long: `snapsense - detect finger snaps and other audio/hand gestures.

The engine runs a spectral front-end, an adaptive noise gate, a
pluggable classifier (RBF kernel machine, logistic regression or a
small CNN over log-mel spectrograms) and a debounced event state
machine over a recording or a live capture feed.

State is stored under ~/.snapsense/:
  config.yaml   detector profiles
  events/       persisted event log (BadgerDB)
  clips/        saved gesture clips (WAV)

Examples:
  # Register a detector profile and make it the default
  snapsense profile add snap --config snap.yaml --model snap-rbf.yaml
  snapsense profile use snap

  # Replay a recording through the detector
  snapsense run --input session.wav

  # Serve detected events to websocket subscribers while running
  snapsense run --input session.wav --listen :8700

  # Inspect what a run produced
  snapsense events list session-20260830`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "detector profile to use (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config-file", "", "CLI config file path (default ~/.snapsense/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format (yaml|json|raw)")
}

// outputFormat returns the selected output format, YAML by default.
func outputFormat() cli.OutputFormat {
	if outputFlag == "" {
		return cli.FormatYAML
	}
	return cli.OutputFormat(outputFlag)
}

// configLoadErr stores the error from cli.LoadConfig for deferred
// reporting, so commands like 'snapsense version' work without a
// usable home directory.
var configLoadErr error

func initConfig() {
	cfg, err := cli.LoadConfigWithPath(configPath)
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global CLI configuration.
func GetConfig() (*cli.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := cli.LoadConfigWithPath(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// ResolveProfile returns the profile selected by the --profile flag,
// falling back to the current profile. Commands that can run without
// a profile should tolerate the error.
func ResolveProfile() (*cli.Profile, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveProfile(profileName)
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
