// Package cli provides common utilities for the snapsense command-line
// tool.
//
// This package includes:
//   - Detector profile management (named config/model pairs)
//   - Output formatting (JSON, YAML, raw)
//   - YAML/JSON file loading for models and pose traces
//   - Terminal UI components for the live detector view
//
// State lives under ~/.snapsense/: the profile config, the event log
// database and locally stored gesture clips.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig()
//
//	prof, err := cfg.ResolveProfile("snap")
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	})
package cli
