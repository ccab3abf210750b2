package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/patina/pkg/aging"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorVerdigris = lipgloss.Color("73")  // primary
	colorMoss      = lipgloss.Color("107") // success
	colorOchre     = lipgloss.Color("179") // warnings
	colorRust      = lipgloss.Color("167") // errors
	colorParchment = lipgloss.Color("230") // values
	colorAsh       = lipgloss.Color("245") // headers
	colorSoot      = lipgloss.Color("240") // muted
)

var (
	styleHighlight = lipgloss.NewStyle().Foreground(colorVerdigris)
	styleLink      = lipgloss.NewStyle().Foreground(colorVerdigris).Underline(true)
	styleHeader    = lipgloss.NewStyle().Foreground(colorAsh).Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(colorSoot)
	styleValue     = lipgloss.NewStyle().Foreground(colorParchment)
	styleNumber    = lipgloss.NewStyle().Foreground(colorVerdigris)
	styleWarning   = lipgloss.NewStyle().Foreground(colorOchre)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorMoss)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRust)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorOchre)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorAsh)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorVerdigris)

	styleCached = lipgloss.NewStyle().Foreground(colorMoss)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Printer
// =============================================================================

// printer writes styled status lines to a command's output.
type printer struct {
	w io.Writer
}

func newPrinter(cmd *cobra.Command) printer {
	return printer{w: cmd.OutOrStdout()}
}

func (p printer) status(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(p.w, icon.Render(glyph)+" "+msg)
}

func (p printer) success(format string, args ...any) {
	p.status(styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func (p printer) fail(format string, args ...any) {
	p.status(styleIconError, iconError, fmt.Sprintf(format, args...))
}

func (p printer) warn(format string, args ...any) {
	p.status(styleIconWarning, iconWarning, styleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.status(styleIconInfo, iconInfo, fmt.Sprintf(format, args...))
}

// detail prints an indented, muted line.
func (p printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints an output path.
func (p printer) file(path string) {
	fmt.Fprintln(p.w, "  "+styleDim.Render(iconArrow)+" "+styleValue.Render(path))
}

func (p printer) newline() {
	fmt.Fprintln(p.w)
}

// report prints the damage drawn by one aging run on a single line.
func (p printer) report(r aging.Report, cached bool) {
	parts := []string{
		styleDim.Render(fmt.Sprintf("crack length %.0f", r.CrackLength)),
		styleDim.Render(fmt.Sprintf("stain tone %d", r.StainTone)),
		styleDim.Render(fmt.Sprintf("contrast %.3f", r.ContrastFactor)),
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleDim.Render(r.Duration.Round(time.Millisecond).String()))
	}
	fmt.Fprintln(p.w, "  "+strings.Join(parts, styleDim.Render(" · ")))
}

func (p printer) table(t *table.Table) {
	fmt.Fprintln(p.w, t.Render())
}

// newTable returns a rounded table with highlighted first column. Columns
// from numeric on are styled as numbers; pass -1 for none.
func newTable(numeric int, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleDim).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case numeric >= 0 && col >= numeric:
				return styleNumber
			case col == 0:
				return styleHighlight
			}
			return styleValue
		})
}
