package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/driftlabs/tunneld/internal/api/models"
	"github.com/driftlabs/tunneld/internal/frps"
	"github.com/driftlabs/tunneld/internal/supervisor"
)

// registerProcessRoutes registers all process lifecycle endpoints.
func (s *Server) registerProcessRoutes() {
	// List tracked processes
	huma.Register(s.api, huma.Operation{
		OperationID: "list-processes",
		Method:      http.MethodGet,
		Path:        "/api/processes",
		Summary:     "List Processes",
		Description: "Get all tracked tunnel server processes, running and exited",
		Tags:        []string{"processes"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ProcessListResponse, error) {
		snaps := s.supervisor.List()
		processes := make([]models.ProcessData, len(snaps))
		for i, snap := range snaps {
			processes[i] = snapshotToAPIProcess(snap)
		}
		return &models.ProcessListResponse{
			Body: models.ProcessListData{
				Processes: processes,
				Count:     len(processes),
			},
		}, nil
	})

	// Create process
	huma.Register(s.api, huma.Operation{
		OperationID:   "create-process",
		Method:        http.MethodPost,
		Path:          "/api/processes",
		Summary:       "Create Process",
		Description:   "Materialize configuration and spawn a new tunnel server process",
		Tags:          []string{"processes"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{400, 401, 409, 500},
		Security:      withAuth(),
	}, func(ctx context.Context, input *models.CreateProcessRequest) (*models.ProcessResponse, error) {
		snap, err := s.supervisor.Create(supervisor.CreateSpec{
			ID:         input.Body.ID,
			Binary:     input.Body.Binary,
			ConfigText: input.Body.ConfigText,
			Config:     input.Body.Config,
			Env:        input.Body.Env,
			Args:       input.Body.Args,
			LogLines:   input.Body.LogLines,
			Replace:    input.Body.Replace,
		})
		if err != nil {
			return nil, s.mapSupervisorError(err)
		}
		return &models.ProcessResponse{Body: snapshotToAPIProcess(snap)}, nil
	})

	// Get specific process
	huma.Register(s.api, huma.Operation{
		OperationID: "get-process",
		Method:      http.MethodGet,
		Path:        "/api/processes/{id}",
		Summary:     "Get Process",
		Description: "Get the current state of a tracked process",
		Tags:        []string{"processes"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" example:"edge-eu-1" doc:"Process identifier"`
	}) (*models.ProcessResponse, error) {
		snap, ok := s.supervisor.Get(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("process not found")
		}
		return &models.ProcessResponse{Body: snapshotToAPIProcess(snap)}, nil
	})

	// Stop process
	huma.Register(s.api, huma.Operation{
		OperationID: "stop-process",
		Method:      http.MethodDelete,
		Path:        "/api/processes/{id}",
		Summary:     "Stop Process",
		Description: "Signal a process to stop, optionally force-killing after the timeout",
		Tags:        []string{"processes"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		ID        string `path:"id" example:"edge-eu-1" doc:"Process identifier"`
		Force     bool   `query:"force" doc:"Force-kill when the graceful wait times out"`
		TimeoutMs int    `query:"timeout_ms" minimum:"0" example:"5000" doc:"Graceful wait in milliseconds, default 5000"`
	}) (*models.StopResponse, error) {
		handled := s.supervisor.Stop(input.ID, supervisor.StopOptions{
			Force:   input.Force,
			Timeout: time.Duration(input.TimeoutMs) * time.Millisecond,
		})
		if !handled {
			return nil, huma.Error404NotFound("process not found")
		}
		return &models.StopResponse{
			Body: models.StopData{ID: input.ID, Stopped: true},
		}, nil
	})

	// Process logs
	huma.Register(s.api, huma.Operation{
		OperationID: "get-process-logs",
		Method:      http.MethodGet,
		Path:        "/api/processes/{id}/logs",
		Summary:     "Process Logs",
		Description: "Get the most recent captured output lines, oldest first",
		Tags:        []string{"processes"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id" example:"edge-eu-1" doc:"Process identifier"`
		Limit int    `query:"limit" minimum:"0" example:"100" doc:"Maximum lines to return, 0 for all retained"`
	}) (*models.LogsResponse, error) {
		lines, ok := s.supervisor.Logs(input.ID, input.Limit)
		if !ok {
			return nil, huma.Error404NotFound("process not found")
		}
		return &models.LogsResponse{
			Body: models.LogsData{ID: input.ID, Lines: lines, Count: len(lines)},
		}, nil
	})

	// Admin API pass-through: server summary
	huma.Register(s.api, huma.Operation{
		OperationID: "get-process-server-info",
		Method:      http.MethodGet,
		Path:        "/api/processes/{id}/server",
		Summary:     "Server Info",
		Description: "Fetch the runtime summary from the process's admin API",
		Tags:        []string{"processes"},
		Errors:      []int{401, 404, 502},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" example:"edge-eu-1" doc:"Process identifier"`
	}) (*models.ServerInfoResponse, error) {
		client, err := s.adminClient(input.ID)
		if err != nil {
			return nil, err
		}
		info, err := client.ServerInfo(ctx)
		if err != nil {
			return nil, huma.Error502BadGateway("admin API unreachable", err)
		}
		return &models.ServerInfoResponse{Body: *info}, nil
	})

	// Admin API pass-through: proxies
	huma.Register(s.api, huma.Operation{
		OperationID: "list-process-proxies",
		Method:      http.MethodGet,
		Path:        "/api/processes/{id}/proxies",
		Summary:     "List Proxies",
		Description: "List proxies registered on the process's tunnel server",
		Tags:        []string{"processes"},
		Errors:      []int{401, 404, 502},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id" example:"edge-eu-1" doc:"Process identifier"`
		Type string `query:"type" enum:"tcp,udp,http,https,stcp,sudp" default:"tcp" doc:"Proxy type"`
	}) (*models.ProxyListResponse, error) {
		client, err := s.adminClient(input.ID)
		if err != nil {
			return nil, err
		}
		proxyType := input.Type
		if proxyType == "" {
			proxyType = "tcp"
		}
		proxies, err := client.ListProxies(ctx, proxyType)
		if err != nil {
			return nil, huma.Error502BadGateway("admin API unreachable", err)
		}
		return &models.ProxyListResponse{
			Body: models.ProxyListData{Proxies: proxies, Count: len(proxies)},
		}, nil
	})
}

// adminClient builds an admin API client for a tracked process, or an HTTP
// error when the process is unknown or has no admin web server configured.
func (s *Server) adminClient(id string) (*frps.Client, error) {
	snap, ok := s.supervisor.Get(id)
	if !ok {
		return nil, huma.Error404NotFound("process not found")
	}
	if snap.AdminAddr == "" {
		return nil, huma.Error404NotFound("process has no admin web server configured")
	}
	return frps.NewClient("http://"+snap.AdminAddr, snap.AdminUser, snap.AdminPass), nil
}

// snapshotToAPIProcess converts a supervisor snapshot to API process data.
func snapshotToAPIProcess(snap supervisor.Snapshot) models.ProcessData {
	data := models.ProcessData{
		ID:          snap.ID,
		State:       string(snap.Status.State),
		PID:         snap.Status.PID,
		Binary:      snap.BinaryPath,
		WorkDir:     snap.WorkDir,
		ConfigPath:  snap.ConfigPath,
		AdminAddr:   snap.AdminAddr,
		Args:        snap.Args,
		LogCapacity: snap.LogCapacity,
		StartedAt:   snap.Status.StartedAt,
		ExitCode:    snap.Status.ExitCode,
		Signal:      snap.Status.Signal,
	}
	if !snap.Status.ExitedAt.IsZero() {
		exitedAt := snap.Status.ExitedAt
		data.ExitedAt = &exitedAt
	}
	return data
}

// mapSupervisorError maps domain errors to HTTP errors.
func (s *Server) mapSupervisorError(err error) error {
	if supErr, ok := err.(*supervisor.Error); ok {
		switch supErr.Code {
		case supervisor.ErrCodeNotFound:
			return huma.Error404NotFound(supErr.Message, err)
		case supervisor.ErrCodeConflict:
			return huma.Error409Conflict(supErr.Message, err)
		case supervisor.ErrCodeInvalidSpec, supervisor.ErrCodeBinaryNotFound:
			return huma.Error400BadRequest(supErr.Message, err)
		case supervisor.ErrCodeSpawnFailed:
			return huma.Error500InternalServerError(supErr.Message, err)
		default:
			return huma.Error500InternalServerError("internal server error", err)
		}
	}
	return huma.Error500InternalServerError("internal server error", err)
}
