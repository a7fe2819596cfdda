package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/driftlabs/tunneld/cmd"
	"github.com/driftlabs/tunneld/internal/api"
	"github.com/driftlabs/tunneld/internal/config"
	"github.com/driftlabs/tunneld/internal/events"
	"github.com/driftlabs/tunneld/internal/logging"
	"github.com/driftlabs/tunneld/internal/metrics"
	"github.com/driftlabs/tunneld/internal/supervisor"
)

// Options for the CLI, flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"tunneld.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8070" toml:"server.port" env:"SERVER_PORT"`

	// Supervisor settings
	DataDir       string `help:"Parent directory for per-process working directories" default:"/var/lib/tunneld" toml:"supervisor.data_dir" env:"DATA_DIR"`
	StopTimeoutMs int    `help:"Shutdown stop timeout per process in milliseconds" default:"5000" toml:"supervisor.stop_timeout_ms" env:"STOP_TIMEOUT_MS"`

	// Metrics settings
	MetricsEnabled bool `help:"Expose Prometheus metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Config watching
	WatchConfig bool `help:"Reload logging levels on config file change" default:"true" toml:"server.watch_config" env:"WATCH_CONFIG"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP       string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"supervisor": opts.LoggingSupervisor,
				"api":        opts.LoggingAPI,
				"http":       opts.LoggingHTTP,
			},
		})

		logger := logging.GetLogger("main")

		eventBus := events.New()

		// Daemon log entries flow onto the bus for the SSE log stream.
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		supOpts := supervisor.Options{
			DataDir: opts.DataDir,
			Logger:  logging.GetLogger("supervisor"),
			Bus:     eventBus,
		}
		if opts.MetricsEnabled {
			supOpts.Metrics = metrics.Recorder{}
		}
		sup := supervisor.New(supOpts)

		if opts.MetricsEnabled {
			metrics.RegisterRunningGauge(func() float64 {
				return float64(sup.RunningCount())
			})
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Supervisor:   sup,
			EventBus:     eventBus,
		}
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = metrics.HTTPHandler()
		}

		server := api.NewServer(apiOpts)

		// Logging levels follow the config file at runtime.
		var watcher *config.Watcher[logging.Config]
		if opts.WatchConfig {
			if _, statErr := os.Stat(opts.Config); statErr == nil {
				watcher = config.NewConfigWatcher(
					opts.Config,
					func(path string) (logging.Config, error) {
						return config.LoadLoggingConfig(path), nil
					},
					logging.GetLogger("watcher"),
				)
				watcher.OnReload(func(cfg logging.Config) {
					logger.Info("Applying updated logging levels")
					logging.UpdateLevels(cfg)
				})
			}
		}

		hooks.OnStart(func() {
			if watcher != nil {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Failed to start config watcher", "error", startErr)
				}
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Managed processes go down in parallel, force-killed after the
			// configured timeout.
			sup.StopAll(time.Duration(opts.StopTimeoutMs) * time.Millisecond)
		})
	})

	cli.Root().AddCommand(cmd.CreateRenderConfigCmd())

	cli.Run()
}
