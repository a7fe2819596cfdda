package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type watchedConfig struct {
	Name  string `toml:"name"`
	Value int    `toml:"value"`
}

func loadWatchedConfig(path string) (watchedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return watchedConfig{}, err
	}
	var cfg watchedConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestConfigWatcherBasicReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunneld.toml")
	if err := os.WriteFile(path, []byte("name = \"initial\"\nvalue = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	received := make(chan watchedConfig, 1)
	watcher := NewConfigWatcher(
		path,
		loadWatchedConfig,
		newTestLogger(),
		WithDebounce[watchedConfig](50*time.Millisecond),
	)
	watcher.OnReload(func(cfg watchedConfig) {
		received <- cfg
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	}()

	// Let the watcher settle before editing the file.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("name = \"updated\"\nvalue = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Name != "updated" || cfg.Value != 42 {
			t.Errorf("got %+v, want name=updated value=42", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestConfigWatcherUnsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunneld.toml")
	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	received := make(chan watchedConfig, 10)
	watcher := NewConfigWatcher(
		path,
		loadWatchedConfig,
		newTestLogger(),
		WithDebounce[watchedConfig](50*time.Millisecond),
	)
	unsubscribe := watcher.OnReload(func(cfg watchedConfig) {
		received <- cfg
	})
	unsubscribe()

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("value = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		t.Errorf("unsubscribed handler received %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestConfigWatcherErrorHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunneld.toml")
	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loadErr := errors.New("boom")
	loader := func(string) (watchedConfig, error) {
		return watchedConfig{}, loadErr
	}

	gotErr := make(chan error, 1)
	watcher := NewConfigWatcher(
		path,
		loader,
		newTestLogger(),
		WithDebounce[watchedConfig](50*time.Millisecond),
		WithErrorHandler[watchedConfig](func(err error) {
			select {
			case gotErr <- err:
			default:
			}
		}),
	)
	watcher.OnReload(func(watchedConfig) {
		t.Error("handler called despite load error")
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("value = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-gotErr:
		if !errors.Is(err, loadErr) {
			t.Errorf("error = %v, want %v", err, loadErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not invoked")
	}
}

func TestConfigWatcherStartMissingFile(t *testing.T) {
	watcher := NewConfigWatcher(
		filepath.Join(t.TempDir(), "missing.toml"),
		loadWatchedConfig,
		newTestLogger(),
	)
	if err := watcher.Start(); err == nil {
		watcher.Stop()
		t.Fatal("expected error starting watcher on missing file")
	}
}
