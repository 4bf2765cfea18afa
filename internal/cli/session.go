package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/nexusmind"
	"github.com/aretw0/nexusmind/internal/presentation/graph"
	"github.com/aretw0/nexusmind/internal/presentation/tui"
)

// ListSessions prints stored sessions with their status and query.
func ListSessions(ctx context.Context, eng *nexusmind.Engine, out io.Writer) error {
	ids, err := eng.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		printSystemMessage(out, "No sessions found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tFINISHED\tQUERY")
	for _, id := range ids {
		s, err := eng.Session(ctx, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t?\t\t%v\n", id, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Status, s.FinishedAt.Format("2006-01-02 15:04:05"), s.Query)
	}
	return tw.Flush()
}

// ShowSession prints a stored session, as JSON or as answer plus trace.
func ShowSession(ctx context.Context, eng *nexusmind.Engine, id string, asJSON, color bool, out io.Writer) error {
	s, err := eng.Session(ctx, id)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(out, s)
	}

	fmt.Fprintf(out, "Session: %s (%s)\nQuery:   %s\n\n", s.ID, s.Status, s.Query)
	rendered, err := tui.SessionRenderer(color)(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rendered)
	fmt.Fprintln(out)
	tui.PrintTrace(out, s.Trace, color)
	return nil
}

// DeleteSession removes a stored session.
func DeleteSession(ctx context.Context, eng *nexusmind.Engine, id string, out io.Writer) error {
	if err := eng.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	printSystemMessage(out, "Session '%s' deleted.", id)
	return nil
}

// ExportGraph prints the graph of a stored session as Mermaid or JSON.
func ExportGraph(ctx context.Context, eng *nexusmind.Engine, id, format string, out io.Writer) error {
	s, err := eng.Session(ctx, id)
	if err != nil {
		return err
	}
	switch format {
	case "mermaid":
		_, err = io.WriteString(out, graph.GenerateMermaid(s.Graph, graph.SessionOverlay(s)))
		return err
	case "json":
		return printJSON(out, s.Graph)
	}
	return fmt.Errorf("unknown graph format %q (use mermaid or json)", format)
}
