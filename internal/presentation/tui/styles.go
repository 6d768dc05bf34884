package tui

import (
	"fmt"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f97316"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
	toastStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	toastColors = map[domain.NotificationKind]lipgloss.Color{
		domain.NotifySuccess:    lipgloss.Color("#22c55e"),
		domain.NotifyFailure:    lipgloss.Color("#ef4444"),
		domain.NotifyValidation: lipgloss.Color("#eab308"),
	}
)

// StepHeader renders "Step n of N · Title" above a progress bar.
func StepHeader(current, total int, title string, percent float64) string {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	head := titleStyle.Render(fmt.Sprintf("Step %d of %d · %s", current, total, title))
	return head + "\n" + bar.ViewAs(percent/100)
}

// Hint renders secondary text.
func Hint(s string) string {
	return hintStyle.Render(s)
}

// Toast renders a notification in a bordered box colored by kind.
func Toast(n domain.Notification) string {
	style := toastStyle
	if c, ok := toastColors[n.Kind]; ok {
		style = style.BorderForeground(c)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.UnsetForeground().Render(n.Title), n.Message))
}
