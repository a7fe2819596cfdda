package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runRenderConfig(t *testing.T, args ...string) string {
	t.Helper()
	cmd := CreateRenderConfigCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("render-config failed: %v", err)
	}
	return out.String()
}

func TestRenderConfigDefaults(t *testing.T) {
	out := runRenderConfig(t)
	if !strings.Contains(out, "bindPort = 7000") {
		t.Errorf("defaults missing bindPort:\n%s", out)
	}
	if !strings.Contains(out, "[webServer]") {
		t.Errorf("defaults missing webServer table:\n%s", out)
	}
}

func TestRenderConfigMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frps.toml")
	if err := os.WriteFile(path, []byte("bindPort = 9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runRenderConfig(t, path)
	if !strings.Contains(out, "bindPort = 9000") {
		t.Errorf("file value not applied:\n%s", out)
	}
	// Defaults survive for keys the file does not set.
	if !strings.Contains(out, "bindAddr") {
		t.Errorf("defaults dropped:\n%s", out)
	}
}

func TestRenderConfigMissingFile(t *testing.T) {
	cmd := CreateRenderConfigCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"/nonexistent/frps.toml"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing file")
	}
}
