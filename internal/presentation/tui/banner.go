package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/muesli/termenv"
)

var confidenceLabels = [4]string{"empirical", "theoretical", "rigor", "consensus"}

// PrintBanner outputs the NexusMind banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{` _   _                      __  __ _           _ `, "#818cf8"},
		{`| \ | | _____  ___   _ ___|  \/  (_)_ __   __| |`, "#a78bfa"},
		{`|  \| |/ _ \ \/ / | | / __| |\/| | | '_ \ / _' |`, "#c084fc"},
		{`| |\  |  __/>  <| |_| \__ \ |  | | | | | | (_| |`, "#e879f9"},
		{`|_| \_|\___/_/\_\\__,_|___/_|  |_|_|_| |_|\__,_|`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// ConfidenceLine formats a confidence vector, colored by level when color is set.
func ConfidenceLine(v domain.ConfidenceVector, color bool) string {
	p := termenv.ColorProfile()
	parts := make([]string, len(v))
	for i, c := range v {
		text := fmt.Sprintf("%s=%.2f", confidenceLabels[i], c)
		if !color {
			parts[i] = text
			continue
		}
		hex := "#ef4444"
		switch {
		case c >= 0.7:
			hex = "#22c55e"
		case c >= 0.4:
			hex = "#eab308"
		}
		parts[i] = termenv.String(text).Foreground(p.Color(hex)).String()
	}
	return "confidence: " + strings.Join(parts, " ")
}

// PrintTrace writes one line per trace entry, failed stages highlighted.
func PrintTrace(w io.Writer, trace []domain.TraceEntry, color bool) {
	p := termenv.ColorProfile()
	for _, e := range trace {
		line := fmt.Sprintf("%d. %-22s %5dms  %s", e.StageNumber, e.StageName, e.DurationMS, e.Summary)
		if e.Failed() {
			line += " [" + e.Error + "]"
			if color {
				line = termenv.String(line).Foreground(p.Color("#ef4444")).String()
			}
		}
		fmt.Fprintln(w, line)
	}
}
