package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case StatusUpdateMsg:
		return m.handleStatusUpdate(msg)
	case JobStartedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
		}
		return m, nil
	case ResetDoneMsg:
		if msg.Err != nil {
			m.Err = msg.Err
		}
		return m, nil
	}
	return m, nil
}

// handleKeyPress processes keyboard input. While idle the model doubles as
// a line editor for the URL field.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		url := strings.TrimSpace(m.Input)
		if url != "" && m.Status != StatusRunning {
			m.Err = nil
			return m, startJob(m.Client, url)
		}
		return m, nil
	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
		}
		return m, nil
	case tea.KeyCtrlR:
		m.Input = ""
		m.Err = nil
		return m, resetJob(m.Client)
	case tea.KeySpace:
		m.Input += " "
		return m, nil
	case tea.KeyRunes:
		m.Input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// handleStatusUpdate syncs local state from the polled snapshot
func (m Model) handleStatusUpdate(msg StatusUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Connected = false
		return m, nil
	}
	m.Connected = true
	m.Status = msg.Status.Status
	m.Progress = msg.Status.Progress
	m.Stage = msg.Status.Stage
	m.JobErr = msg.Status.Error
	m.Transcript = msg.Status.Transcript
	return m, nil
}
