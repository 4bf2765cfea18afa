package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/nexusmind"
	"github.com/aretw0/nexusmind/internal/presentation/graph"
	"github.com/aretw0/nexusmind/internal/presentation/tui"
)

// QueryOptions contains the configuration of the query command.
type QueryOptions struct {
	Query      string
	SessionID  string
	ParamsPath string
	Context    string // Raw JSON string
	JSON       bool
	Mermaid    bool
	Trace      bool
	Color      bool // Render markdown and colors for a terminal
}

// RunQuery processes one query and prints the result in the requested form.
func RunQuery(ctx context.Context, eng *nexusmind.Engine, opts QueryOptions, out io.Writer) error {
	params, err := LoadParams(opts.ParamsPath)
	if err != nil {
		return err
	}
	initial, err := ParseContext(opts.Context)
	if err != nil {
		return err
	}

	s, err := eng.ProcessQuery(ctx, nexusmind.Request{
		Query:             opts.Query,
		SessionID:         opts.SessionID,
		OperationalParams: params,
		InitialContext:    initial,
	})
	if s == nil {
		return err
	}
	if err != nil {
		eng.Logger().Warn("session not persisted", "session_id", s.ID, "err", err)
	}

	switch {
	case opts.JSON:
		return printJSON(out, s)
	case opts.Mermaid:
		_, err := io.WriteString(out, graph.GenerateMermaid(s.Graph, graph.SessionOverlay(s)))
		return err
	}

	rendered, err := tui.SessionRenderer(opts.Color)(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rendered)
	if opts.Trace {
		fmt.Fprintln(out)
		tui.PrintTrace(out, s.Trace, opts.Color)
	}
	if s.Halted() {
		printSystemMessage(out, "Session '%s' halted.", s.ID)
	}
	return nil
}

// RunInteractive reads queries from in until exit, quit or EOF.
func RunInteractive(ctx context.Context, eng *nexusmind.Engine, opts QueryOptions, in io.Reader, out io.Writer) error {
	params, err := LoadParams(opts.ParamsPath)
	if err != nil {
		return err
	}
	if opts.Color {
		tui.PrintBanner(out)
	}

	r := nexusmind.NewRunner()
	r.Input = in
	r.Output = out
	r.Headless = !opts.Color
	r.Params = params
	r.Renderer = tui.SessionRenderer(opts.Color)

	return handleExecutionError(r.Run(ctx, eng))
}

// handleExecutionError treats an interrupt as a clean exit.
func handleExecutionError(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
