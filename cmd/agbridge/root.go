package main

import (
	"github.com/bhandras/agbridge/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	var (
		configFile string
		envFile    string
		addr       string
		dataDir    string
		policyFile string
		wakerCmd   string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:   "agbridge",
		Short: "Approval bridge between a coding agent and a paired phone",
		Long: "agbridge serves a small HTTP and WebSocket API on the LAN. An agent asks it " +
			"for approval before running commands, a paired phone approves or denies them, " +
			"and messages for the agent wake it through an external waker process.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			overrides := config.Overrides{
				ConfigFile: changed(flags, "config", &configFile),
				EnvFile:    changed(flags, "env-file", &envFile),
				Addr:       changed(flags, "addr", &addr),
				DataDir:    changed(flags, "data-dir", &dataDir),
				PolicyFile: changed(flags, "policy", &policyFile),
				WakerCmd:   changed(flags, "waker", &wakerCmd),
				Debug:      changed(flags, "debug", &debug),
			}

			cfg, err := config.Load(viper.New(), overrides)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment; empty to skip")
	flags.StringVar(&addr, "addr", "", "listen address (default 0.0.0.0:8787)")
	flags.StringVar(&dataDir, "data-dir", "", "directory holding state.json and journal.db")
	flags.StringVar(&policyFile, "policy", "", "command policy file")
	flags.StringVar(&wakerCmd, "waker", "", "command line of the agent waker")
	flags.BoolVar(&debug, "debug", false, "enable debug logging and debug endpoints")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// changed returns a pointer to the flag's value only when it was set on the
// command line, so unset flags fall through to files and the environment.
func changed[T any](flags *pflag.FlagSet, name string, v *T) *T {
	if !flags.Changed(name) {
		return nil
	}
	return v
}
