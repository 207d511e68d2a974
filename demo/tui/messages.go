package tui

import "time"

// Messages for the tea program (polling-based)

// StatusUpdateMsg is sent when we receive a job snapshot from the transcriber
type StatusUpdateMsg struct {
	Status *StatusResponse
	Err    error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// JobStartedMsg is sent after the user submits a URL
type JobStartedMsg struct {
	Err error
}

// ResetDoneMsg is sent after a reset request completes
type ResetDoneMsg struct {
	Err error
}
