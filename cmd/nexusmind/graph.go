package main

import (
	"os"

	"github.com/aretw0/nexusmind/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <session-id>",
	Short: "Export the thought graph of a stored session",
	Long:  `Outputs the session graph as a Mermaid diagram (graph TD) or as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		res, _, _, err := openEngine(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer res.Close()
		return cli.ExportGraph(cmd.Context(), res.Engine, args[0], format, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: 'mermaid' or 'json'")
}
