package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/snapsense/snapsense/pkg/cli"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage detector profiles",
	Long: `Manage named detector profiles (engine config + model pairs).

The current profile supplies defaults for 'snapsense run'; any profile
can be selected per-invocation with the global --profile flag.`,
}

var profileAddFlags struct {
	config   string
	model    string
	clips    bool
	s3Bucket string
	s3Prefix string
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if profileAddFlags.config == "" {
			return fmt.Errorf("--config is required")
		}
		p := &cli.Profile{
			Config:   profileAddFlags.config,
			Model:    profileAddFlags.model,
			Clips:    profileAddFlags.clips,
			S3Bucket: profileAddFlags.s3Bucket,
			S3Prefix: profileAddFlags.s3Prefix,
		}
		if err := cfg.AddProfile(args[0], p); err != nil {
			return err
		}
		cli.PrintSuccess("profile %q saved", args[0])
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseProfile(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("current profile is %q", args[0])
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names := cfg.ListProfiles()
		sort.Strings(names)
		for _, name := range names {
			marker := " "
			if name == cfg.CurrentProfile {
				marker = "*"
			}
			p := cfg.Profiles[name]
			fmt.Printf("%s %-12s config=%s", marker, name, p.Config)
			if p.Model != "" {
				fmt.Printf(" model=%s", p.Model)
			}
			fmt.Println()
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile (default: current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		p, err := cfg.ResolveProfile(name)
		if err != nil {
			return err
		}
		return cli.Output(p, cli.OutputOptions{Format: outputFormat()})
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteProfile(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("profile %q deleted", args[0])
		return nil
	},
}

func init() {
	profileAddCmd.Flags().StringVar(&profileAddFlags.config, "config", "", "engine config YAML path")
	profileAddCmd.Flags().StringVar(&profileAddFlags.model, "model", "", "classifier model YAML path")
	profileAddCmd.Flags().BoolVar(&profileAddFlags.clips, "clips", false, "save a WAV clip per detected event")
	profileAddCmd.Flags().StringVar(&profileAddFlags.s3Bucket, "s3-bucket", "", "upload clips to this S3 bucket")
	profileAddCmd.Flags().StringVar(&profileAddFlags.s3Prefix, "s3-prefix", "", "object key prefix for uploaded clips")

	profileCmd.AddCommand(profileAddCmd, profileUseCmd, profileListCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
