// Package supervisor manages the lifecycle of tunnel server processes.
//
// A Supervisor owns a registry of process records keyed by id. For each
// record it:
//   - materializes a configuration file inside a per-id working directory
//   - spawns the host process with captured stdout/stderr
//   - feeds both output streams through a line splitter into a bounded
//     ring buffer owned by the record
//   - watches for process exit and stamps the record Exited exactly once
//
// Termination is cooperative first (SIGTERM with a bounded poll) and
// forceful on request (SIGKILL after the timeout). Records persist after
// exit so their captured output stays inspectable; they are only removed
// when superseded by a create-with-replace.
//
// Example usage:
//
//	sup := supervisor.New(supervisor.Options{DataDir: "/var/lib/tunneld"})
//	snap, err := sup.Create(supervisor.CreateSpec{
//	    ID:     "edge-eu-1",
//	    Binary: "frps",
//	    Config: frps.DefaultConfig(),
//	})
//	defer sup.StopAll(5 * time.Second)
package supervisor
