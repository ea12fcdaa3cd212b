// Package styles holds the colors and message formats used by patterngen.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette. DisableColors resets every entry.
var (
	Primary   = lipgloss.Color("#0EA5E9")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")
	Text      = lipgloss.Color("#F9FAFB")
	TextMuted = lipgloss.Color("#9CA3AF")
	TextDim   = lipgloss.Color("#6B7280")
	Surface   = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

// Icons prefixed to generator output lines.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconSkip    = "◌"
)

var (
	Title  lipgloss.Style
	Normal lipgloss.Style
	Muted  lipgloss.Style
	Dim    lipgloss.Style
	Code   lipgloss.Style

	successStyle lipgloss.Style
	warningStyle lipgloss.Style
	errorStyle   lipgloss.Style
	infoStyle    lipgloss.Style
)

func init() {
	buildStyles()
}

func buildStyles() {
	Title = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)
	Normal = lipgloss.NewStyle().Foreground(Text)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Code = lipgloss.NewStyle().Foreground(Warning).Background(Surface).Padding(0, 1)

	successStyle = lipgloss.NewStyle().Foreground(Success)
	warningStyle = lipgloss.NewStyle().Foreground(Warning)
	errorStyle = lipgloss.NewStyle().Foreground(Error)
	infoStyle = lipgloss.NewStyle().Foreground(Primary)
}

// FormatSuccess renders a generated or up-to-date target.
func FormatSuccess(msg string) string {
	return successStyle.Render(IconSuccess) + " " + Normal.Render(msg)
}

// FormatError renders a failure.
func FormatError(msg string) string {
	return errorStyle.Render(IconError) + " " + Normal.Render(msg)
}

// FormatWarning renders a stale target in --check mode.
func FormatWarning(msg string) string {
	return warningStyle.Render(IconWarning) + " " + Normal.Render(msg)
}

// FormatInfo renders a neutral status line.
func FormatInfo(msg string) string {
	return infoStyle.Render(IconInfo) + " " + Normal.Render(msg)
}

// FormatSkipped renders an accessor left to a hand-written method.
func FormatSkipped(msg string) string {
	return Dim.Render(IconSkip) + " " + Muted.Render(msg)
}

// FormatStep prefixes msg with a [step/total] counter.
func FormatStep(step, total int, msg string) string {
	counter := lipgloss.NewStyle().Foreground(TextMuted).Width(8)
	return counter.Render(fmt.Sprintf("[%d/%d]", step, total)) + " " + msg
}

// FormatKeyValue renders an aligned "key: value" line.
func FormatKeyValue(key, value string) string {
	keyStyle := lipgloss.NewStyle().Foreground(TextMuted).Width(20)
	return keyStyle.Render(key+":") + " " + lipgloss.NewStyle().Bold(true).Render(value)
}

// DisableColors strips colors from every style, for --no-color and pipes.
func DisableColors() {
	for _, c := range []*lipgloss.Color{&Primary, &Success, &Warning, &Error, &Text, &TextMuted, &TextDim, &Surface, &Border} {
		*c = ""
	}
	buildStyles()
}
