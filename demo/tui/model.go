package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Status mirrors the job states reported by the transcriber
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Segment is one transcript entry
type Segment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Transcript is the finished result
type Transcript struct {
	Title    string    `json:"title"`
	Duration string    `json:"duration"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// StatusResponse is the JSON response from /api/status
type StatusResponse struct {
	URL        string      `json:"url,omitempty"`
	Status     Status      `json:"status"`
	Progress   float64     `json:"progress"`
	Stage      string      `json:"stage,omitempty"`
	Error      string      `json:"error,omitempty"`
	Transcript *Transcript `json:"transcript,omitempty"`
}

// Model represents the TUI client state (thin client)
type Model struct {
	// Transcriber client
	Client *TranscriberClient

	// Local UI state (synced from the transcriber)
	Status     Status
	Progress   float64
	Stage      string
	JobErr     string
	Transcript *Transcript

	// URL input buffer
	Input string

	// Connection status
	Connected bool
	Err       error
}

// NewModel creates a new TUI model
func NewModel(transcriberURL string) Model {
	return Model{
		Client: NewTranscriberClient(transcriberURL),
		Status: StatusIdle,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	// Start polling immediately
	return tea.Batch(
		pollStatus(m.Client),
		tickCmd(),
	)
}
