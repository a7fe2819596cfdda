package supervisor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/driftlabs/tunneld/internal/events"
	"github.com/driftlabs/tunneld/internal/frps"
	"github.com/driftlabs/tunneld/internal/logring"
)

const (
	// stopPollInterval is how often a stop call re-checks the record state
	// while waiting for the process to exit. Tunable, not contractual.
	stopPollInterval = 50 * time.Millisecond

	// defaultStopTimeout bounds a stop call when the caller passes none.
	defaultStopTimeout = 5 * time.Second

	// replaceStopTimeout bounds the force-stop of a record being superseded
	// by a create-with-replace.
	replaceStopTimeout = 2 * time.Second

	configFileName  = "frps.toml"
	defaultLogLines = 1000
)

// Recorder receives lifecycle notifications for metrics. A nil Recorder
// disables instrumentation.
type Recorder interface {
	ProcessSpawned()
	ProcessExited(outcome string)
	StopRequested(forced bool)
}

// Options configures a Supervisor.
type Options struct {
	// DataDir is the parent of all per-process working directories.
	DataDir string
	Logger  *slog.Logger
	Bus     *events.Bus // optional, lifecycle events
	Metrics Recorder    // optional
}

// Supervisor owns the registry of managed tunnel server processes.
// All methods are safe for concurrent use.
type Supervisor struct {
	mu      sync.RWMutex
	procs   map[string]*record
	pending map[string]struct{} // ids reserved by in-flight creates
	dataDir string
	logger  *slog.Logger
	bus     *events.Bus
	metrics Recorder
}

// New creates a supervisor. DataDir is created lazily on first Create.
func New(opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		procs:   make(map[string]*record),
		pending: make(map[string]struct{}),
		dataDir: opts.DataDir,
		logger:  logger,
		bus:     opts.Bus,
		metrics: opts.Metrics,
	}
}

// CreateSpec describes a process to create.
type CreateSpec struct {
	// ID is the registry key; a fresh unique id is generated when empty.
	ID string
	// Binary is a path (verified as-is) or a bare name (resolved via PATH).
	Binary string
	// ConfigText is raw configuration written verbatim. When both
	// ConfigText and Config are set, ConfigText wins.
	ConfigText string
	// Config is a structured configuration rendered to TOML by the frps
	// collaborator.
	Config *frps.Config
	// Env overrides are merged over the host environment; overrides win.
	Env map[string]string
	// Args replaces the default ["-c", <configPath>] argument list.
	Args []string
	// LogLines is the log ring capacity, clamped to logring's bounds.
	// Zero means the default.
	LogLines int
	// Replace force-stops and supersedes an existing record under ID
	// instead of failing with a conflict.
	Replace bool
}

// Create validates the spec, materializes configuration, spawns the host
// process and registers a Running record. The returned snapshot is taken
// synchronously; capture and exit-watcher goroutines run on afterwards.
//
// On spawn failure the working directory and config file are left in
// place for diagnosis.
func (s *Supervisor) Create(spec CreateSpec) (Snapshot, error) {
	if spec.ConfigText == "" && spec.Config == nil {
		return Snapshot{}, NewError(ErrCodeInvalidSpec,
			"either config text or a structured config is required", nil)
	}
	if spec.Binary == "" {
		return Snapshot{}, NewError(ErrCodeInvalidSpec, "binary is required", nil)
	}

	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	replaced, err := s.claimID(id, spec.Replace)
	if err != nil {
		return Snapshot{}, err
	}
	claimed := true
	defer func() {
		if claimed {
			s.releaseID(id)
		}
	}()

	binaryPath, err := resolveBinary(spec.Binary)
	if err != nil {
		return Snapshot{}, err
	}

	configText := spec.ConfigText
	if configText == "" {
		configText, err = frps.Render(spec.Config)
		if err != nil {
			return Snapshot{}, NewError(ErrCodeInvalidSpec, "failed to render config", err)
		}
	}

	// No side effects before this point. Work dir naming is deterministic:
	// one directory per id, directly under the data dir.
	workDir := filepath.Join(s.dataDir, id)
	if replaced {
		_ = os.RemoveAll(workDir)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Snapshot{}, NewError(ErrCodeSpawnFailed, "failed to create working directory", err)
	}
	configPath := filepath.Join(workDir, configFileName)
	if err := os.WriteFile(configPath, []byte(configText), 0o644); err != nil {
		return Snapshot{}, NewError(ErrCodeSpawnFailed, "failed to write config file", err)
	}

	args := spec.Args
	if len(args) == 0 {
		args = []string{"-c", configPath}
	}

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = workDir
	cmd.Env = mergeEnv(spec.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Snapshot{}, NewError(ErrCodeSpawnFailed, "failed to create stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Snapshot{}, NewError(ErrCodeSpawnFailed, "failed to create stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return Snapshot{}, NewError(ErrCodeSpawnFailed, "failed to start process", err)
	}

	logLines := spec.LogLines
	if logLines == 0 {
		logLines = defaultLogLines
	}

	var adminUser, adminPass string
	if spec.Config != nil {
		adminUser = spec.Config.WebServer.User
		adminPass = spec.Config.WebServer.Password
	}

	rec := &record{
		id:         id,
		binaryPath: binaryPath,
		workDir:    workDir,
		configPath: configPath,
		adminAddr:  spec.Config.AdminAddr(),
		adminUser:  adminUser,
		adminPass:  adminPass,
		args:       args,
		env:        cmd.Env,
		logs:       logring.New(logLines),
		cmd:        cmd,
		status: Status{
			State:     StateRunning,
			PID:       cmd.Process.Pid,
			StartedAt: time.Now(),
		},
	}

	s.mu.Lock()
	delete(s.pending, id)
	s.procs[id] = rec
	snap := rec.snapshot()
	s.mu.Unlock()
	claimed = false

	s.logger.Info("Process started", "id", id, "pid", snap.Status.PID, "binary", binaryPath)
	if s.metrics != nil {
		s.metrics.ProcessSpawned()
	}
	s.publish(events.ProcessStartedEvent{
		ProcessID: id,
		PID:       snap.Status.PID,
		Binary:    binaryPath,
		Timestamp: eventTime(),
	})

	// Two capture goroutines, one per stream, tag and push into the ring.
	// One watcher goroutine waits for both, reaps the process and stamps
	// the record Exited through the synchronized update path.
	outputDone := make(chan struct{}, 2)
	go func() {
		s.capture(rec, stdout, "[stdout] ")
		outputDone <- struct{}{}
	}()
	go func() {
		s.capture(rec, stderr, "[stderr] ")
		outputDone <- struct{}{}
	}()
	go s.watchExit(rec, outputDone)

	return snap, nil
}

// claimID reserves id for the calling create. The reservation and the
// conflict check happen under one lock acquisition, so two concurrent
// creates for the same id cannot both proceed: the loser fails with a
// conflict before spawning anything. An id claimed by an in-flight create
// is a conflict even with replace set. With replace set, an existing
// record is force-stopped with a short bounded timeout and removed.
//
// The reservation is consumed when the new record is inserted, or given
// back through releaseID on any later failure. Reports whether a prior
// record was replaced.
func (s *Supervisor) claimID(id string, replace bool) (bool, error) {
	s.mu.Lock()
	if _, inFlight := s.pending[id]; inFlight {
		s.mu.Unlock()
		return false, NewError(ErrCodeConflict,
			fmt.Sprintf("process %q is already being created", id), nil)
	}
	prev, exists := s.procs[id]
	if exists && !replace {
		s.mu.Unlock()
		return false, NewError(ErrCodeConflict,
			fmt.Sprintf("process %q already exists", id), nil)
	}
	s.pending[id] = struct{}{}
	s.mu.Unlock()

	if !exists {
		return false, nil
	}

	s.logger.Info("Replacing existing process", "id", id)
	s.Stop(id, StopOptions{Force: true, Timeout: replaceStopTimeout})

	s.mu.Lock()
	if cur, ok := s.procs[id]; ok && cur == prev {
		delete(s.procs, id)
	}
	s.mu.Unlock()
	return true, nil
}

// releaseID gives back a reservation taken by claimID when the create
// fails after the claim.
func (s *Supervisor) releaseID(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// resolveBinary turns a binary locator into an absolute-ish path. Locators
// containing a path separator must exist at that exact path; bare names go
// through the host's PATH lookup. Runs before any filesystem side effects.
func resolveBinary(binary string) (string, error) {
	if strings.ContainsRune(binary, os.PathSeparator) {
		info, err := os.Stat(binary)
		if err != nil || info.IsDir() {
			return "", NewError(ErrCodeBinaryNotFound,
				fmt.Sprintf("binary not found at %q", binary), err)
		}
		return binary, nil
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", NewError(ErrCodeBinaryNotFound,
			fmt.Sprintf("binary %q not found in PATH", binary), err)
	}
	return path, nil
}

// mergeEnv merges overrides onto a snapshot of the host environment;
// overrides win on key collision. The result is sorted for determinism.
func mergeEnv(overrides map[string]string) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// capture runs the line splitter over one output stream, tagging each
// line with its channel before pushing into the record's ring. Stream
// errors end this capture task only; they never fail the record.
func (s *Supervisor) capture(rec *record, r io.Reader, tag string) {
	err := splitLines(r, func(line string) {
		rec.logs.Push(tag + line)
	})
	if err != nil {
		s.logger.Warn("Error reading process output", "id", rec.id, "tag", tag, "error", err)
	}
}

// watchExit reaps the process after both capture tasks finish and stamps
// the record Exited. It runs independently of any caller request and
// always completes the transition, even when exit details are unavailable.
func (s *Supervisor) watchExit(rec *record, outputDone <-chan struct{}) {
	<-outputDone
	<-outputDone

	waitErr := rec.cmd.Wait()
	code, signal := exitStatus(waitErr)
	s.markExited(rec, code, signal)
}

// exitStatus extracts the exit code or termination signal from a Wait
// error. Both are absent when Wait failed for a reason other than process
// exit.
func exitStatus(waitErr error) (*int, string) {
	if waitErr == nil {
		code := 0
		return &code, ""
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return nil, ws.Signal().String()
		}
		code := exitErr.ExitCode()
		return &code, ""
	}
	return nil, ""
}

// markExited performs the one-directional Running -> Exited transition
// through the registry lock. Idempotent: repeated notifications for the
// same record are no-ops.
func (s *Supervisor) markExited(rec *record, code *int, signal string) {
	s.mu.Lock()
	if rec.status.State == StateExited {
		s.mu.Unlock()
		return
	}
	rec.status.State = StateExited
	rec.status.ExitedAt = time.Now()
	rec.status.ExitCode = code
	rec.status.Signal = signal
	s.mu.Unlock()

	attrs := []any{"id", rec.id}
	if code != nil {
		attrs = append(attrs, "exit_code", *code)
	}
	if signal != "" {
		attrs = append(attrs, "signal", signal)
	}
	s.logger.Info("Process exited", attrs...)

	if s.metrics != nil {
		s.metrics.ProcessExited(exitOutcome(code, signal))
	}
	s.publish(events.ProcessExitedEvent{
		ProcessID: rec.id,
		ExitCode:  code,
		Signal:    signal,
		Timestamp: eventTime(),
	})
}

func exitOutcome(code *int, signal string) string {
	switch {
	case signal != "":
		return "signal"
	case code != nil && *code == 0:
		return "clean"
	default:
		return "error"
	}
}

// StopOptions controls a Stop call.
type StopOptions struct {
	// Force sends SIGKILL when the process is still running after Timeout.
	Force bool
	// Timeout bounds the graceful wait; defaultStopTimeout when zero.
	Timeout time.Duration
}

// Stop initiates termination of a managed process. It returns false only
// for an unknown id; otherwise it reports that the stop sequence was
// handled, which without Force does not guarantee the process is dead.
//
// Already-exited records return true immediately with no signal sent.
// Signal delivery errors are swallowed: the goal state is "not running"
// and may already hold.
func (s *Supervisor) Stop(id string, opts StopOptions) bool {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}

	s.mu.RLock()
	rec, ok := s.procs[id]
	if !ok {
		s.mu.RUnlock()
		return false
	}
	if rec.status.State == StateExited {
		s.mu.RUnlock()
		return true
	}
	proc := rec.cmd.Process
	s.mu.RUnlock()

	s.logger.Info("Stopping process", "id", id, "force", opts.Force, "timeout", timeout)
	if proc != nil {
		_ = proc.Signal(syscall.SIGTERM)
	}

	// Poll rather than block on the exit watcher so concurrent registry
	// operations keep flowing, and concurrent stops of the same id stay
	// independent.
	deadline := time.Now().Add(timeout)
	exited := false
	for time.Now().Before(deadline) {
		time.Sleep(stopPollInterval)
		if s.hasExited(rec) {
			exited = true
			break
		}
	}

	forced := false
	if !exited && opts.Force && proc != nil {
		forced = true
		s.logger.Warn("Graceful stop timed out, killing process", "id", id)
		_ = proc.Kill()
	}

	if s.metrics != nil {
		s.metrics.StopRequested(forced)
	}
	s.publish(events.ProcessStoppedEvent{
		ProcessID: id,
		Forced:    forced,
		Timestamp: eventTime(),
	})
	return true
}

func (s *Supervisor) hasExited(rec *record) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rec.status.State == StateExited
}

// StopAll force-stops every tracked process in parallel so total shutdown
// latency is bounded by the slowest process, not the sum.
func (s *Supervisor) StopAll(timeout time.Duration) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	s.logger.Info("Stopping all processes", "count", len(ids))

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.Stop(id, StopOptions{Force: true, Timeout: timeout})
		}(id)
	}
	wg.Wait()
}

// List returns snapshots of all records, running and exited.
func (s *Supervisor) List() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(s.procs))
	for _, rec := range s.procs {
		snaps = append(snaps, rec.snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// Get returns a snapshot of the record under id.
func (s *Supervisor) Get(id string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.procs[id]
	if !ok {
		return Snapshot{}, false
	}
	return rec.snapshot(), true
}

// Logs returns the most recent captured output lines for id, oldest
// first. A limit <= 0 returns everything retained.
func (s *Supervisor) Logs(id string, limit int) ([]string, bool) {
	s.mu.RLock()
	rec, ok := s.procs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return rec.logs.Snapshot(limit), true
}

// RunningCount returns the number of records currently in Running state.
func (s *Supervisor) RunningCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rec := range s.procs {
		if rec.status.State == StateRunning {
			n++
		}
	}
	return n
}

func (s *Supervisor) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func eventTime() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
