package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapsense/snapsense/pkg/classifier"
	"github.com/snapsense/snapsense/pkg/cli"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and validate classifier models",
}

var modelFile string

// loadModelArg resolves the model path from --file or the profile.
func loadModelArg() (classifier.Config, string, error) {
	path := modelFile
	if path == "" {
		p, err := ResolveProfile()
		if err != nil {
			return classifier.Config{}, "", fmt.Errorf("no --file given and no profile: %w", err)
		}
		path = p.Model
		if path == "" {
			return classifier.Config{}, "", fmt.Errorf("profile %q has no model", p.Name)
		}
	}
	cfg, err := classifier.Load(path)
	return cfg, path, err
}

var modelValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a model and check all parameter shapes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadModelArg()
		if err != nil {
			return err
		}
		scorer, err := classifier.New(cfg)
		if err != nil {
			return err
		}
		size := ""
		if info, err := os.Stat(path); err == nil {
			size = ", " + cli.FormatBytes(info.Size())
		}
		cli.PrintSuccess("%s: valid %s model, %d input features%s", path, cfg.Kind, scorer.Dim(), size)
		return nil
	},
}

// modelSummary is the displayable shape of a model config, without
// the weight payloads.
type modelSummary struct {
	Kind     classifier.Kind `json:"kind" yaml:"kind"`
	Features int             `json:"features" yaml:"features"`

	NumSV int     `json:"n_sv,omitempty" yaml:"n_sv,omitempty"`
	Gamma float64 `json:"gamma,omitempty" yaml:"gamma,omitempty"`

	NumMels    int `json:"n_mels,omitempty" yaml:"n_mels,omitempty"`
	Frames     int `json:"frames,omitempty" yaml:"frames,omitempty"`
	SampleRate int `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

var modelShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a model's kind and geometry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadModelArg()
		if err != nil {
			return err
		}
		scorer, err := classifier.New(cfg)
		if err != nil {
			return err
		}
		s := modelSummary{Kind: cfg.Kind, Features: scorer.Dim()}
		switch {
		case cfg.RBF != nil:
			s.NumSV = cfg.RBF.NumSV
			s.Gamma = cfg.RBF.Gamma
		case cfg.CNN != nil:
			s.NumMels = cfg.CNN.NumMels
			s.Frames = cfg.CNN.Frames()
			s.SampleRate = cfg.CNN.SampleRate
		}
		return cli.Output(s, cli.OutputOptions{Format: outputFormat()})
	},
}

func init() {
	modelCmd.PersistentFlags().StringVarP(&modelFile, "file", "f", "", "model config YAML path (default: profile's model)")
	modelCmd.AddCommand(modelValidateCmd, modelShowCmd)
	rootCmd.AddCommand(modelCmd)
}
