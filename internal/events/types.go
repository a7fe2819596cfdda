package events

// Event type constants for kelindar/event.
const (
	TypeProcessStarted uint32 = iota + 1
	TypeProcessExited
	TypeProcessStopped
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProcessStartedEvent is published when a managed process has been spawned.
type ProcessStartedEvent struct {
	ProcessID string `json:"process_id" example:"edge-eu-1" doc:"Supervisor identifier of the process"`
	PID       int    `json:"pid" example:"4242" doc:"Host operating-system process id"`
	Binary    string `json:"binary" example:"/usr/bin/frps" doc:"Resolved binary path"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProcessStartedEvent.
func (e ProcessStartedEvent) Type() uint32 { return TypeProcessStarted }

// ProcessExitedEvent is published by the exit watcher when a managed
// process terminates, whether or not a stop was requested.
type ProcessExitedEvent struct {
	ProcessID string `json:"process_id" example:"edge-eu-1" doc:"Supervisor identifier of the process"`
	ExitCode  *int   `json:"exit_code,omitempty" example:"0" doc:"Exit code, absent when the process was signal-killed"`
	Signal    string `json:"signal,omitempty" example:"terminated" doc:"Termination signal name, empty on clean exit"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProcessExitedEvent.
func (e ProcessExitedEvent) Type() uint32 { return TypeProcessExited }

// ProcessStoppedEvent is published when a caller-initiated stop sequence
// completes for a process.
type ProcessStoppedEvent struct {
	ProcessID string `json:"process_id" example:"edge-eu-1" doc:"Supervisor identifier of the process"`
	Forced    bool   `json:"forced" example:"false" doc:"Whether a forceful kill was sent"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProcessStoppedEvent.
func (e ProcessStoppedEvent) Type() uint32 { return TypeProcessStopped }

// LogEntryEvent represents a daemon log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
