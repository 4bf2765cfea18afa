package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/nexusmind"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nexusmind",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nexusmind version %s\n", strings.TrimSpace(nexusmind.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
