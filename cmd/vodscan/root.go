package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag string
		verbose    bool
	)
	ctx := newCommandContext(&configFlag, &verbose)

	rootCmd := &cobra.Command{
		Use:   "vodscan",
		Short: "Find match rosters in chunked stream recordings",
		Long: "vodscan walks the chunks of a recorded stream, recognises the team\n" +
			"lineups shown before each match and writes one picks block per match.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level regardless of logging.level")

	rootCmd.AddCommand(
		newScanCommand(ctx),
		newStatusCommand(ctx),
		newSegmentsCommand(ctx),
		newTemplatesCommand(ctx),
		newCheckCommand(ctx),
		newConfigCommand(ctx),
	)
	return rootCmd
}
