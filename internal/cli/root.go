// Package cli implements the nf-class command tree.
package cli

import (
	"log/slog"

	"github.com/me/nfclass/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the nf-class CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nf-class",
		Short: "nf-class — class-based Nextflow component generation",
		Long: "nf-class generates Nextflow DSL2 modules and subworkflows from\n" +
			"class definitions shared by families of interchangeable tools.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(logging.Options{
				Level:  flagLogLevel,
				Format: flagLogFormat,
				Debug:  flagDebug,
			})
			warnIfOutdated(cmd.Context(), logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newModulesCmd(),
		newSubworkflowsCmd(),
		newClassesCmd(),
		newVersionCmd(),
	)

	return root
}
