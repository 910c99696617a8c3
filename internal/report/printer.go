// internal/report/printer.go
package report

import (
	"fmt"
	"io"
)

// ANSI codes match the console palette used by the logger.
const (
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

// Printer renders a Report for a terminal. Matches are printed in red,
// a clean run in green; NoColor drops the escape codes for pipes and dumb
// terminals.
type Printer struct {
	Out     io.Writer
	NoColor bool
}

func (p *Printer) paint(color, text string) string {
	if p.NoColor {
		return text
	}
	return color + text + colorReset
}

// Print writes the human-readable summary of the report.
func (p *Printer) Print(rep *Report) {
	if rep.Matches() == 0 {
		fmt.Fprintln(p.Out, p.paint(colorGreen, "Success, no leaked jwt secrets found"))
	} else {
		fmt.Fprintln(p.Out, p.paint(colorRed, "Leaked signing secrets found:"))
	}

	for _, rec := range rep.Records {
		name := rec.CookieName
		if name == "" {
			name = "(token)"
		}
		switch {
		case rec.MatchedSecret != nil:
			fmt.Fprintln(p.Out, p.paint(colorRed, fmt.Sprintf(
				"%s: secret=%q alg=%s tried=%d", name, *rec.MatchedSecret, rec.Algorithm, rec.TriedCount)))
		case rec.Skipped:
			fmt.Fprintf(p.Out, "%s: skipped (algorithm %s not crackable)\n", name, rec.Algorithm)
		default:
			fmt.Fprintf(p.Out, "%s: no match after %d secrets\n", name, rec.TriedCount)
		}
	}
}
