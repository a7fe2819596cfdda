// Package logging provides structured logging with per-module log level
// configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// All records additionally land in an in-memory ring buffer so the API can
// serve recent daemon logs and stream new ones.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"supervisor": "debug",  // Per-module overrides
//			"api":        "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("supervisor")
//	logger.Info("Starting up", "port", 8080)
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t tunneld              # All tunneld logs
//	journalctl -t tunneld -f           # Follow live
//	journalctl -t tunneld -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t tunneld MODULE=supervisor
//	journalctl -t tunneld PROCESS_ID=edge-1
//
// # Configuration
//
// Log levels can be set globally or per-module; module-specific levels
// override the global level for that module only. Levels can be updated at
// runtime via [UpdateLevels], which the config watcher uses on file change.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	supervisor = "debug"
//	api = "warn"
package logging
