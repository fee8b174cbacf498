package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter colors a piece of output and falls back to plain decoration
// when color is disabled.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f Formatter) Sprint(a ...any) string {
	s := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + s + f.suffix
	}
	return f.color.Sprint(s)
}

func (f Formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

var (
	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}
	// Muted is dimmed with color, parenthesized without.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
	Path  = Formatter{color.New(color.FgYellow), "", ""}
	ID    = Formatter{color.New(color.FgCyan, color.Bold), "", ""}
)

// formatSize renders n bytes with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
