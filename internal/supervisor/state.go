package supervisor

import "time"

// State represents the run state of a managed process.
type State string

// Process states. The only transition is Running -> Exited; it is
// one-directional and permanent.
const (
	StateRunning State = "running"
	StateExited  State = "exited"
)

// Status is the run-state portion of a process record.
type Status struct {
	State     State
	PID       int
	StartedAt time.Time
	ExitedAt  time.Time // zero until exited
	ExitCode  *int      // nil while running, and when killed by a signal
	Signal    string    // termination signal name, empty on clean exit
}

// Snapshot is an immutable copy of a process record, safe from concurrent
// mutation by the exit watcher and capture goroutines.
type Snapshot struct {
	ID          string
	BinaryPath  string
	WorkDir     string
	ConfigPath  string
	AdminAddr   string // host:port of the instance's admin API, may be empty
	AdminUser   string // admin API basic auth, empty when unauthenticated
	AdminPass   string
	Args        []string
	Env         []string
	LogCapacity int
	Status      Status
}
