package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/timeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

// renderEvent formats one scheduler event as a progress line. Per-job
// events render as nothing.
func renderEvent(ev generation.Event) string {
	switch ev.Type {
	case generation.EventBatchStarted:
		return infoStyle.Render("▸ " + ev.Message)
	case generation.EventCooldown:
		return infoStyle.Render(fmt.Sprintf("⏳ %s (%ds)", ev.Message, int(math.Ceil(ev.Remaining))))
	case generation.EventBatchCompleted:
		if ev.Result != nil && ev.Result.FailedCount > 0 {
			return errorStyle.Render("✗ " + ev.Message)
		}
		return statusStyle.Render("✓ " + ev.Message)
	case generation.EventRunFinished:
		return titleStyle.Render(ev.Message)
	default:
		return ""
	}
}

// renderSummary formats the outcome of a run.
func renderSummary(s generation.Summary) string {
	lines := []string{
		fmt.Sprintf("Batches   %d/%d", s.CompletedBatches, s.TotalBatches),
		fmt.Sprintf("Succeeded %d", s.Succeeded),
		fmt.Sprintf("Failed    %d", s.Failed),
	}
	if s.Stopped {
		lines = append(lines, fmt.Sprintf("Stopped   %d requests skipped", s.Skipped))
	}
	for _, req := range s.FailedRequests {
		lines = append(lines, errorStyle.Render("  retry: "+req.Prompt))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// renderTimeline formats the timed segments as a table.
func renderTimeline(tl timeline.Timeline) string {
	if tl.Len() == 0 {
		return infoStyle.Render("Timeline is empty")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-3s %-6s %8s %8s  %s", "#", "KIND", "START", "LENGTH", "URL")))
	b.WriteString("\n")
	for i, slot := range tl.Slots() {
		fmt.Fprintf(&b, "%-3d %-6s %7.2fs %7.2fs  %s\n",
			i+1, slot.Item.Kind, slot.Start, slot.Duration, slot.Item.URL)
	}

	footer := fmt.Sprintf("Total %.2fs", tl.Total())
	if target := tl.Target(); target != nil {
		footer += fmt.Sprintf(" of %.2fs audio", *target)
	} else {
		footer += " (no audio, fallback lengths)"
	}
	if tl.Overrun() {
		b.WriteString(errorStyle.Render(footer + ", videos exceed the audio"))
	} else {
		b.WriteString(statusStyle.Render(footer))
	}
	return b.String()
}
