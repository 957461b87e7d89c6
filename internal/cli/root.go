// Package cli wires configuration, storage and the settlement engine into
// the multas command line.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Database   string
	LogLevel   string
}

// NewRootCommand creates the root command for the multas CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "multas",
		Short: "Fine settlement server for workout accountability groups",
		Long: `multas keeps a group's weekly workout evidence, closes each ISO week by
fining members without approved evidence, and settles one-on-one challenges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (default $MULTAS_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides db_path)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides log_level)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCloseWeekCommand(opts))

	return cmd
}
