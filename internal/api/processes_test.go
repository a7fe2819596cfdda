package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driftlabs/tunneld/internal/api/models"
	"github.com/driftlabs/tunneld/internal/events"
	"github.com/driftlabs/tunneld/internal/supervisor"
)

func newTestServer(t *testing.T, opts *Options) (*httptest.Server, *supervisor.Supervisor) {
	t.Helper()
	sup := supervisor.New(supervisor.Options{
		DataDir: t.TempDir(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { sup.StopAll(2 * time.Second) })

	if opts == nil {
		opts = &Options{}
	}
	opts.Supervisor = sup
	if opts.EventBus == nil {
		opts.EventBus = events.New()
	}

	server := NewServer(opts)
	ts := httptest.NewServer(server.GetMux())
	t.Cleanup(ts.Close)
	return ts, sup
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := decodeBody[models.HealthData](t, resp)
	if data.Status != "ok" {
		t.Errorf("status = %q, want ok", data.Status)
	}
}

func TestVersionEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/version")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data := decodeBody[models.VersionData](t, resp)
	if data.Version == "" || data.GoVersion == "" {
		t.Errorf("incomplete version data: %+v", data)
	}
}

func TestCreateProcessLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/processes", models.CreateProcessRequestData{
		ID:         "web-1",
		Binary:     "sh",
		ConfigText: "# cfg\n",
		Args:       []string{"-c", "sleep 30"},
	})
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("create status = %d, body: %s", resp.StatusCode, body)
	}
	created := decodeBody[models.ProcessData](t, resp)
	if created.State != "running" || created.PID <= 0 {
		t.Errorf("unexpected created process: %+v", created)
	}

	// List includes it
	resp, err := http.Get(ts.URL + "/api/processes")
	if err != nil {
		t.Fatal(err)
	}
	list := decodeBody[models.ProcessListData](t, resp)
	if list.Count != 1 || list.Processes[0].ID != "web-1" {
		t.Errorf("unexpected list: %+v", list)
	}

	// Get by id
	resp, err = http.Get(ts.URL + "/api/processes/web-1")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	got := decodeBody[models.ProcessData](t, resp)
	if got.ID != "web-1" || got.Binary == "" {
		t.Errorf("unexpected process: %+v", got)
	}

	// Stop it
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/processes/web-1?force=true&timeout_ms=100", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
	stopped := decodeBody[models.StopData](t, resp)
	if !stopped.Stopped {
		t.Error("stop not handled")
	}
}

func TestCreateProcessValidationError(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/processes", models.CreateProcessRequestData{
		ID:     "no-config",
		Binary: "sh",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateProcessBinaryNotFound(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/processes", models.CreateProcessRequestData{
		ID:         "missing",
		Binary:     "definitely-not-a-real-binary-name",
		ConfigText: "x\n",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateProcessConflict(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	spec := models.CreateProcessRequestData{
		ID:         "dup",
		Binary:     "sh",
		ConfigText: "x\n",
		Args:       []string{"-c", "sleep 30"},
	}
	resp := postJSON(t, ts.URL+"/api/processes", spec)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create status = %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/processes", spec)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestGetUnknownProcess(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/processes/ghost")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStopUnknownProcess(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/processes/ghost", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProcessLogsEndpoint(t *testing.T) {
	ts, sup := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/processes", models.CreateProcessRequestData{
		ID:         "echoer",
		Binary:     "sh",
		ConfigText: "x\n",
		Args:       []string{"-c", "echo hello"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	// Wait for output capture and exit.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if lines, _ := sup.Logs("echoer", 0); len(lines) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	logResp, err := http.Get(ts.URL + "/api/processes/echoer/logs")
	if err != nil {
		t.Fatal(err)
	}
	if logResp.StatusCode != http.StatusOK {
		t.Fatalf("logs status = %d", logResp.StatusCode)
	}
	data := decodeBody[models.LogsData](t, logResp)
	if data.Count == 0 || data.Lines[0] != "[stdout] hello" {
		t.Errorf("unexpected logs: %+v", data)
	}
}

func TestServerInfoWithoutAdminAddr(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/processes", models.CreateProcessRequestData{
		ID:         "no-admin",
		Binary:     "sh",
		ConfigText: "x\n",
		Args:       []string{"-c", "sleep 30"},
	})
	resp.Body.Close()

	infoResp, err := http.Get(ts.URL + "/api/processes/no-admin/server")
	if err != nil {
		t.Fatal(err)
	}
	defer infoResp.Body.Close()
	if infoResp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when no admin web server configured", infoResp.StatusCode)
	}
}

func TestBasicAuthRequired(t *testing.T) {
	ts, _ := newTestServer(t, &Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
	})

	// Health is exempt from auth.
	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200 without auth", resp.StatusCode)
	}

	// Process list is not.
	resp, err = http.Get(ts.URL + "/api/processes")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without credentials", resp.StatusCode)
	}

	// Correct credentials pass.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/processes", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 with credentials", resp.StatusCode)
	}

	// Wrong credentials fail.
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/processes", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 with wrong credentials", resp.StatusCode)
	}
}

func TestMetricsHandlerMounted(t *testing.T) {
	ts, _ := newTestServer(t, &Options{
		PrometheusHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintln(w, "# metrics")
		}),
	})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}
}
