package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"recdiff/internal/report"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
		Long: "Profiles in ~/.recdiff/config.yaml hold defaults for the output format,\n" +
			"key inference keyword, ignored columns, page size, colors and log level.\n" +
			"Flags and RECDIFF_* environment variables take precedence over profiles.",
		// Profiles named with -p may not exist yet here.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUseProfileCmd())

	return cmd
}

// loadOrInitUserConfig returns the saved configuration or an empty one.
func loadOrInitUserConfig() *UserConfig {
	cfg, err := LoadUserConfig()
	if err != nil {
		return &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
	}
	return cfg
}

// targetProfile is the profile named with -p, else the current one.
func targetProfile(cmd *cobra.Command, cfg *UserConfig) string {
	if name, _ := cmd.Root().PersistentFlags().GetString("profile"); name != "" {
		return name
	}
	return cfg.CurrentProfile
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No configuration found at %s\n", ConfigPath())
				return err
			}
			if getOutputFormat(cmd) == string(report.FormatJSON) {
				return report.WriteJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "get KEY",
		Short:     "Print a profile value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: profileKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadOrInitUserConfig()
			name := targetProfile(cmd, cfg)
			p, ok := cfg.Profiles[name]
			if !ok && name != cfg.CurrentProfile {
				return fmt.Errorf("profile %q not found", name)
			}
			v, err := p.Get(args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == string(report.FormatJSON) {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
					"profile": name,
					"key":     args[0],
					"value":   v,
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a profile value, creating the profile if needed",
		Example: `  recdiff config set output json
  recdiff config set -p nightly ignore "updated_at, etl_batch"
  recdiff config set page-size ""`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: profileKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadOrInitUserConfig()
			name := targetProfile(cmd, cfg)
			p := cfg.Profiles[name]
			if err := p.Set(args[0], args[1]); err != nil {
				return err
			}
			cfg.Profiles[name] = p
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == string(report.FormatJSON) {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
					"status":  "ok",
					"profile": name,
					"path":    ConfigPath(),
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found: have %v", name, cfg.ProfileNames())
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == string(report.FormatJSON) {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
					"status":         "ok",
					"active_profile": name,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active profile set to %q\n", name)
			return nil
		},
	}
}
