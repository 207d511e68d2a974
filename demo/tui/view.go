package tui

import (
	"fmt"
	"strings"
)

const progressBarWidth = 40

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	// Title
	b.WriteString(TitleStyle.Render("🎙 Transcriber Demo"))
	b.WriteString("\n\n")

	if !m.Connected {
		b.WriteString(ErrorStyle.Render("❌ Not connected to transcriber"))
		b.WriteString("\n\n")
	}

	// URL input
	b.WriteString(InfoStyle.Render("Video URL:"))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(m.Input + "▌"))
	b.WriteString("\n\n")

	// Current state
	switch m.Status {
	case StatusIdle:
		b.WriteString(HighlightStyle.Render("👋 Ready"))
	case StatusRunning:
		b.WriteString(StatusStyle.Render(fmt.Sprintf("⏳ %s", m.Stage)))
		b.WriteString("\n")
		b.WriteString(renderProgressBar(m.Progress))
	case StatusSucceeded:
		b.WriteString(HighlightStyle.Render("✅ COMPLETE"))
	case StatusFailed:
		errMsg := m.JobErr
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		b.WriteString(ErrorStyle.Render("❌ " + errMsg))
	}
	b.WriteString("\n\n")

	if m.Err != nil {
		b.WriteString(ErrorStyle.Render("Request failed: " + m.Err.Error()))
		b.WriteString("\n\n")
	}

	// Result
	if m.Status == StatusSucceeded && m.Transcript != nil {
		b.WriteString(BoxStyle.Render(formatTranscript(m.Transcript)))
		b.WriteString("\n\n")
	}

	// Help text
	if m.Status == StatusRunning {
		b.WriteString(InfoStyle.Render("Ctrl+R to cancel | Esc or Ctrl+C to quit"))
	} else {
		b.WriteString(InfoStyle.Render("Type a URL and press Enter | Ctrl+R to reset | Esc or Ctrl+C to quit"))
	}

	return b.String()
}

// renderProgressBar draws a fixed-width bar for a 0-100 progress value
func renderProgressBar(progress float64) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := int(progress / 100 * progressBarWidth)

	bar := ProgressFilledStyle.Render(strings.Repeat("█", filled)) +
		ProgressEmptyStyle.Render(strings.Repeat("░", progressBarWidth-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, progress)
}

// formatTranscript formats the finished transcript for display
func formatTranscript(t *Transcript) string {
	var b strings.Builder

	b.WriteString(HighlightStyle.Render(t.Title))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("%s | %s", t.Duration, t.Language)))
	b.WriteString("\n\n")

	for _, seg := range t.Segments {
		if seg.Timestamp != "" {
			b.WriteString(InfoStyle.Render("[" + seg.Timestamp + "] "))
		}
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}

	return b.String()
}
