package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"xdgdesk/internal/config"
	"xdgdesk/pkg/menu"
)

// Styles are the lipgloss styles of the command line output.
type Styles struct {
	Heading  lipgloss.Style
	Emphasis lipgloss.Style
	Muted    lipgloss.Style
	Warning  lipgloss.Style
}

// NewStyles builds styles from a configured palette.
func NewStyles(s config.Style) Styles {
	return Styles{
		Heading:  lipgloss.NewStyle().Foreground(lipgloss.Color(s.Primary)).Bold(true),
		Emphasis: lipgloss.NewStyle().Foreground(lipgloss.Color(s.Emphasis)),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color(s.Muted)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(s.Warning)),
	}
}

// PrintSuccess prints a success message
func (s Styles) PrintSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, s.Emphasis.Render("✓ "+message))
}

// PrintWarning prints a warning message
func (s Styles) PrintWarning(w io.Writer, message string) {
	fmt.Fprintln(w, s.Warning.Render("! "+message))
}

// PrintHeader prints a section header
func (s Styles) PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w, s.Heading.Render(title))
}

// PrintField prints an aligned "key: value" line
func (s Styles) PrintField(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", key+":", value)
}

// TreePrinter renders a menu as an indented tree. It implements
// menu.Printer.
type TreePrinter struct {
	w      io.Writer
	styles Styles
	icon   func(name string) (string, bool)
	depth  int
}

// NewTreePrinter returns a printer writing to w. icon resolves icon names to
// files; it may be nil.
func NewTreePrinter(w io.Writer, styles Styles, icon func(name string) (string, bool)) *TreePrinter {
	return &TreePrinter{w: w, styles: styles, icon: icon}
}

func (p *TreePrinter) indent() string {
	if p.depth <= 1 {
		return ""
	}
	return strings.Repeat("  ", p.depth-1)
}

// Print writes one line for item.
func (p *TreePrinter) Print(item *menu.Item) {
	var line strings.Builder
	line.WriteString(p.indent())
	if item.IsDirectory() {
		line.WriteString(p.styles.Heading.Render(item.Name + "/"))
	} else {
		line.WriteString(item.Name)
		if item.Entry != nil && item.Entry.Terminal {
			line.WriteString(p.styles.Muted.Render(" [terminal]"))
		}
	}

	if p.icon != nil && item.Icon != "" {
		if path, ok := p.icon(item.Icon); ok {
			line.WriteString("  " + p.styles.Muted.Render(path))
		} else {
			line.WriteString("  " + p.styles.Warning.Render("(no icon "+item.Icon+")"))
		}
	}
	fmt.Fprintln(p.w, line.String())
}

// EnterMenu descends one level.
func (p *TreePrinter) EnterMenu(*menu.Item) {
	p.depth++
}

// LeaveMenu ascends one level.
func (p *TreePrinter) LeaveMenu(*menu.Item) {
	p.depth--
}
