package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat selects how a command result is rendered.
type OutputFormat string

const (
	// FormatYAML is the default, meant for terminals.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON suits piping into tooling.
	FormatJSON OutputFormat = "json"
	// FormatRaw passes []byte and string results through untouched.
	FormatRaw OutputFormat = "raw"
)

// OutputOptions configures where and how a result is written.
type OutputOptions struct {
	Format OutputFormat
	// File writes to a path instead of stdout.
	File string
	// Indent overrides the two-space JSON indent.
	Indent string
	// Writer takes precedence over File and stdout.
	Writer io.Writer
}

// Output renders a command result and writes it to the configured
// destination.
func Output(result any, opts OutputOptions) error {
	data, err := render(result, opts)
	if err != nil {
		return err
	}
	if opts.Writer != nil {
		_, err = opts.Writer.Write(data)
		return err
	}
	if opts.File != "" {
		if err := os.WriteFile(opts.File, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}

func render(result any, opts OutputOptions) ([]byte, error) {
	switch opts.Format {
	case FormatYAML, "":
		data, err := yaml.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to format output: %w", err)
		}
		return data, nil
	case FormatJSON:
		indent := opts.Indent
		if indent == "" {
			indent = "  "
		}
		data, err := json.MarshalIndent(result, "", indent)
		if err != nil {
			return nil, fmt.Errorf("failed to format output: %w", err)
		}
		return append(data, '\n'), nil
	case FormatRaw:
		switch v := result.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
		// Structured results fall back to YAML.
		return render(result, OutputOptions{Format: FormatYAML})
	default:
		return nil, fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// Terminal message helpers. These go to the human, not the result
// stream, so redirected output stays parseable.

// PrintSuccess prints a success message with checkmark.
func PrintSuccess(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// PrintInfo prints an info message.
func PrintInfo(format string, args ...any) {
	fmt.Printf("ℹ "+format+"\n", args...)
}

// PrintWarning prints a warning message.
func PrintWarning(format string, args ...any) {
	fmt.Printf("⚠ "+format+"\n", args...)
}

// PrintVerbose prints verbose output to stderr.
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
