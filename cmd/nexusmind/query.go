package main

import (
	"os"

	"github.com/aretw0/nexusmind/internal/cli"
	"github.com/aretw0/nexusmind/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run a query through the pipeline",
	Long: `Runs the question through all eight stages and prints the final answer.
With --interactive, every line read from stdin is processed as its own query.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		if !interactive && len(args) == 0 {
			return cmd.Help()
		}

		opts := cli.QueryOptions{Color: tui.IsTerminal()}
		if len(args) > 0 {
			opts.Query = args[0]
		}
		opts.SessionID, _ = cmd.Flags().GetString("session-id")
		opts.ParamsPath, _ = cmd.Flags().GetString("params")
		opts.Context, _ = cmd.Flags().GetString("context")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Mermaid, _ = cmd.Flags().GetBool("mermaid")
		opts.Trace, _ = cmd.Flags().GetBool("trace")
		if opts.JSON {
			opts.Color = false
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		res, _, _, err := openEngine(sc, cmd)
		if err != nil {
			return err
		}
		defer res.Close()

		if interactive {
			return cli.RunInteractive(sc, res.Engine, opts, os.Stdin, os.Stdout)
		}
		return cli.RunQuery(sc, res.Engine, opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().String("session-id", "", "Session id to use instead of a generated one")
	queryCmd.Flags().String("params", "", "YAML or JSON file of operational parameters")
	queryCmd.Flags().String("context", "", "Initial context as a JSON object")
	queryCmd.Flags().Bool("json", false, "Print the full session record as JSON")
	queryCmd.Flags().Bool("mermaid", false, "Print the session graph as a Mermaid flowchart")
	queryCmd.Flags().Bool("trace", false, "Print the per-stage execution trace")
	queryCmd.Flags().BoolP("interactive", "i", false, "Read queries line by line from stdin")
}
