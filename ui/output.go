// Package ui renders the colored status lines shown during a run.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorInfo    = lipgloss.Color("#3498DB")
	colorMuted   = lipgloss.Color("#7F8C8D")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorInfo),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Info:    lipgloss.NewStyle().Foreground(colorInfo),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
}

// Title prints a bold section heading.
func Title(text string) {
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success line with a checkmark.
func Success(text string) {
	fmt.Printf("%s %s\n", Styles.Success.Render("✓"), text)
}

// Warning prints a warning line.
func Warning(text string) {
	fmt.Printf("%s %s\n", Styles.Warning.Render("⚠"), Styles.Warning.Render(text))
}

// Error prints an error line to stderr.
func Error(text string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", Styles.Error.Render("✗"), Styles.Error.Render(text))
}

// Info prints an informational line.
func Info(text string) {
	fmt.Printf("%s %s\n", Styles.Info.Render("→"), text)
}

// Skipped prints a muted line for skipped work.
func Skipped(text string) {
	fmt.Printf("%s %s\n", Styles.Muted.Render("○"), Styles.Muted.Render(text))
}
