package nexusmind

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/nexusmind/pkg/domain"
)

// Runner reads queries line by line and prints each answer, using provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool // No banner or prompt
	Renderer ContentRenderer
	Params   map[string]any
}

// ContentRenderer transforms a finished session into displayable text.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(*domain.Session) (string, error)

// NewRunner creates a new Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run processes queries until EOF, "exit" or "quit", or until ctx is done.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- NexusMind (Runner) ---")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}

		text, err := lineReader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		query := strings.TrimSpace(text)
		eof := errors.Is(err, io.EOF)

		switch {
		case query == "exit" || query == "quit":
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		case query != "":
			if err := r.answer(ctx, engine, query); err != nil {
				return err
			}
		}
		if eof {
			return nil
		}
	}
}

func (r *Runner) answer(ctx context.Context, engine *Engine, query string) error {
	s, err := engine.ProcessQuery(ctx, Request{Query: query, OperationalParams: r.Params})
	if err != nil {
		if s == nil {
			return fmt.Errorf("process query: %w", err)
		}
		// Persistence failed; the answer is still worth showing.
		fmt.Fprintf(r.Output, "warning: %v\n", err)
	}

	output := s.FinalAnswer
	if r.Renderer != nil {
		if rendered, err := r.Renderer(s); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
	return nil
}
