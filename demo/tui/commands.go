package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pollStatus creates a command to poll the transcriber status
func pollStatus(client *TranscriberClient) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{
			Status: status,
			Err:    err,
		}
	}
}

// startJob creates a command that submits url for transcription
func startJob(client *TranscriberClient, url string) tea.Cmd {
	return func() tea.Msg {
		return JobStartedMsg{Err: client.StartJob(url)}
	}
}

// resetJob creates a command that cancels the current job
func resetJob(client *TranscriberClient) tea.Cmd {
	return func() tea.Msg {
		return ResetDoneMsg{Err: client.Reset()}
	}
}

// tickCmd creates a command that ticks every 500ms for polling
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
