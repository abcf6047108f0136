package main

import (
	"github.com/nijaru/webm-fix/config"
	"github.com/nijaru/webm-fix/tui"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "tui [FILE]",
		Short: "Open the interactive form",
		Long: `Open a terminal form to pick a .webm file, set its duration and
compression options, and submit it.

Keys: tab to move, space to toggle compression, enter to select the file
or submit, ctrl+s to submit from anywhere, esc to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if server != "" {
				cfg.ServerURL = server
			}

			// the form owns the terminal, so logs only go to the log file
			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return tui.Run(cmd.Context(), a.ctrl, path, a.log)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Processing server URL (default from SERVER_URL)")

	return cmd
}
