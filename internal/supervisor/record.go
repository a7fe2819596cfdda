package supervisor

import (
	"os/exec"

	"github.com/driftlabs/tunneld/internal/logring"
)

// record is the registry's live view of one managed process. Mutable
// fields (status) are guarded by the supervisor's mutex; the log buffer
// carries its own lock so capture goroutines never touch the registry.
type record struct {
	id         string
	binaryPath string
	workDir    string
	configPath string
	adminAddr  string
	adminUser  string
	adminPass  string
	args       []string
	env        []string
	status     Status
	logs       *logring.Buffer
	cmd        *exec.Cmd
}

// snapshot deep-copies the record. Callers must hold the supervisor lock
// (read or write).
func (r *record) snapshot() Snapshot {
	snap := Snapshot{
		ID:          r.id,
		BinaryPath:  r.binaryPath,
		WorkDir:     r.workDir,
		ConfigPath:  r.configPath,
		AdminAddr:   r.adminAddr,
		AdminUser:   r.adminUser,
		AdminPass:   r.adminPass,
		Args:        append([]string(nil), r.args...),
		Env:         append([]string(nil), r.env...),
		LogCapacity: r.logs.Cap(),
		Status:      r.status,
	}
	if r.status.ExitCode != nil {
		code := *r.status.ExitCode
		snap.Status.ExitCode = &code
	}
	return snap
}
