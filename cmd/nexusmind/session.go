package main

import (
	"os"

	"github.com/aretw0/nexusmind/internal/cli"
	"github.com/aretw0/nexusmind/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage stored sessions",
	Long:    `List, inspect, and remove finished sessions kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, _, _, err := openEngine(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer res.Close()
		return cli.ListSessions(cmd.Context(), res.Engine, os.Stdout)
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:     "inspect <session-id>",
	Aliases: []string{"show"},
	Short:   "Show a stored session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		res, _, _, err := openEngine(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer res.Close()
		color := !asJSON && tui.IsTerminal()
		return cli.ShowSession(cmd.Context(), res.Engine, args[0], asJSON, color, os.Stdout)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:     "rm <session-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a stored session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, _, _, err := openEngine(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer res.Close()
		return cli.DeleteSession(cmd.Context(), res.Engine, args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)

	sessionInspectCmd.Flags().Bool("json", false, "Print the full session record as JSON")
}
