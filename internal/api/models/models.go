// Package models defines the request and response shapes of the HTTP API.
package models

import (
	"time"

	"github.com/driftlabs/tunneld/internal/frps"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2026-01-15T10:00:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Process models
type ProcessData struct {
	ID          string     `json:"id" example:"edge-eu-1" doc:"Supervisor identifier of the process"`
	State       string     `json:"state" enum:"running,exited" example:"running" doc:"Lifecycle state"`
	PID         int        `json:"pid,omitempty" example:"4242" doc:"Host operating-system process id"`
	Binary      string     `json:"binary" example:"/usr/bin/frps" doc:"Resolved binary path"`
	WorkDir     string     `json:"work_dir" example:"/var/lib/tunneld/edge-eu-1" doc:"Per-process working directory"`
	ConfigPath  string     `json:"config_path" example:"/var/lib/tunneld/edge-eu-1/frps.toml" doc:"Materialized config file path"`
	AdminAddr   string     `json:"admin_addr,omitempty" example:"127.0.0.1:7500" doc:"Admin API address, when configured"`
	Args        []string   `json:"args" doc:"Argument list the process was started with"`
	LogCapacity int        `json:"log_capacity" example:"1000" doc:"Retained log line capacity"`
	StartedAt   time.Time  `json:"started_at" doc:"When the process was spawned"`
	ExitedAt    *time.Time `json:"exited_at,omitempty" doc:"When the process exited"`
	ExitCode    *int       `json:"exit_code,omitempty" example:"0" doc:"Exit code, absent when signal-killed or still running"`
	Signal      string     `json:"signal,omitempty" example:"terminated" doc:"Termination signal name, empty on clean exit"`
}

type ProcessListData struct {
	Processes []ProcessData `json:"processes" doc:"All tracked processes"`
	Count     int           `json:"count" example:"2" doc:"Number of tracked processes"`
}

type ProcessListResponse struct {
	Body ProcessListData
}

type CreateProcessRequestData struct {
	ID         string            `json:"id,omitempty" pattern:"^[a-zA-Z0-9_-]+$" maxLength:"64" example:"edge-eu-1" doc:"Process identifier; generated when omitted"`
	Binary     string            `json:"binary" minLength:"1" example:"frps" doc:"Binary path or bare name resolved via PATH"`
	ConfigText string            `json:"config_text,omitempty" doc:"Raw server configuration, written verbatim; wins over the structured config"`
	Config     *frps.Config      `json:"config,omitempty" doc:"Structured server configuration, rendered to TOML"`
	Env        map[string]string `json:"env,omitempty" doc:"Environment overrides merged over the host environment"`
	Args       []string          `json:"args,omitempty" doc:"Argument list; defaults to -c <config path>"`
	LogLines   int               `json:"log_lines,omitempty" minimum:"0" maximum:"10000" example:"1000" doc:"Retained log line capacity"`
	Replace    bool              `json:"replace,omitempty" doc:"Replace an existing process under the same id"`
}

type CreateProcessRequest struct {
	Body CreateProcessRequestData
}

type ProcessResponse struct {
	Body ProcessData
}

// Stop models
type StopData struct {
	ID      string `json:"id" example:"edge-eu-1" doc:"Process identifier"`
	Stopped bool   `json:"stopped" example:"true" doc:"Whether the stop sequence was handled"`
}

type StopResponse struct {
	Body StopData
}

// Log models
type LogsData struct {
	ID    string   `json:"id" example:"edge-eu-1" doc:"Process identifier"`
	Lines []string `json:"lines" doc:"Captured output lines, oldest first, tagged by stream"`
	Count int      `json:"count" example:"120" doc:"Number of lines returned"`
}

type LogsResponse struct {
	Body LogsData
}

// Admin pass-through models
type ServerInfoResponse struct {
	Body frps.ServerInfo
}

type ProxyListData struct {
	Proxies []frps.ProxyStatus `json:"proxies" doc:"Proxies registered on the server"`
	Count   int                `json:"count" example:"3" doc:"Number of proxies"`
}

type ProxyListResponse struct {
	Body ProxyListData
}
