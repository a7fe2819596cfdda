// Package frps provides collaborators for managed reverse-tunnel server
// instances: a structured configuration model rendered to TOML, and a thin
// client for the server's admin API.
package frps

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Config is the structured configuration for a tunnel server instance.
// It covers the flat top-level keys and one level of nested tables.
// Deeper structures (plugin blocks, per-proxy sections) are out of scope
// for structured rendering; callers needing them supply raw config text.
type Config struct {
	BindAddr          string      `toml:"bindAddr,omitempty" json:"bindAddr,omitempty"`
	BindPort          int         `toml:"bindPort,omitempty" json:"bindPort,omitempty"`
	KCPBindPort       int         `toml:"kcpBindPort,omitempty" json:"kcpBindPort,omitempty"`
	ProxyBindAddr     string      `toml:"proxyBindAddr,omitempty" json:"proxyBindAddr,omitempty"`
	VhostHTTPPort     int         `toml:"vhostHTTPPort,omitempty" json:"vhostHTTPPort,omitempty"`
	VhostHTTPSPort    int         `toml:"vhostHTTPSPort,omitempty" json:"vhostHTTPSPort,omitempty"`
	SubDomainHost     string      `toml:"subDomainHost,omitempty" json:"subDomainHost,omitempty"`
	MaxPortsPerClient int         `toml:"maxPortsPerClient,omitempty" json:"maxPortsPerClient,omitempty"`
	AllowPorts        []PortRange `toml:"allowPorts,omitempty" json:"allowPorts,omitempty"`

	Auth      AuthConfig      `toml:"auth,omitempty" json:"auth,omitempty"`
	WebServer WebServerConfig `toml:"webServer,omitempty" json:"webServer,omitempty"`
	Log       LogConfig       `toml:"log,omitempty" json:"log,omitempty"`
}

// AuthConfig configures client authentication.
type AuthConfig struct {
	Method string `toml:"method,omitempty" json:"method,omitempty"`
	Token  string `toml:"token,omitempty" json:"token,omitempty"`
}

// WebServerConfig configures the admin web server of the tunnel server.
type WebServerConfig struct {
	Addr     string `toml:"addr,omitempty" json:"addr,omitempty"`
	Port     int    `toml:"port,omitempty" json:"port,omitempty"`
	User     string `toml:"user,omitempty" json:"user,omitempty"`
	Password string `toml:"password,omitempty" json:"password,omitempty"`
}

// LogConfig configures the server's own log output.
type LogConfig struct {
	To      string `toml:"to,omitempty" json:"to,omitempty"`
	Level   string `toml:"level,omitempty" json:"level,omitempty"`
	MaxDays int    `toml:"maxDays,omitempty" json:"maxDays,omitempty"`
}

// PortRange is an inclusive range of ports clients may bind.
type PortRange struct {
	Start int `toml:"start" json:"start"`
	End   int `toml:"end" json:"end"`
}

// DefaultConfig returns a configuration with the conventional listen and
// admin ports.
func DefaultConfig() *Config {
	return &Config{
		BindAddr: "0.0.0.0",
		BindPort: 7000,
		Auth: AuthConfig{
			Method: "token",
		},
		WebServer: WebServerConfig{
			Addr: "127.0.0.1",
			Port: 7500,
		},
		Log: LogConfig{
			To:    "console",
			Level: "info",
		},
	}
}

// AdminAddr returns the host:port of the instance's admin API, or an empty
// string when no admin web server is configured.
func (c *Config) AdminAddr() string {
	if c == nil || c.WebServer.Port == 0 {
		return ""
	}
	addr := c.WebServer.Addr
	if addr == "" {
		addr = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", addr, c.WebServer.Port)
}

// Render serializes the configuration to TOML text. Rendering is
// best-effort: flat keys and single-level tables round-trip faithfully,
// which covers the whole Config surface above.
func Render(c *Config) (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to render config to TOML: %w", err)
	}
	return string(data), nil
}
