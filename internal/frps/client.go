package frps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is an HTTP client for a tunnel server's admin API. It is a thin
// pass-through translator; it performs no retries and holds no state about
// the server beyond its address and credentials.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
}

// ServerInfo is the admin API's summary of a running server instance.
type ServerInfo struct {
	Version         string         `json:"version"`
	BindPort        int            `json:"bindPort"`
	VhostHTTPPort   int            `json:"vhostHTTPPort"`
	VhostHTTPSPort  int            `json:"vhostHTTPSPort"`
	TotalTrafficIn  int64          `json:"totalTrafficIn"`
	TotalTrafficOut int64          `json:"totalTrafficOut"`
	CurConns        int64          `json:"curConns"`
	ClientCounts    int64          `json:"clientCounts"`
	ProxyTypeCount  map[string]int `json:"proxyTypeCount"`
}

// ProxyStatus describes one proxy registered on the server.
type ProxyStatus struct {
	Name            string `json:"name"`
	Status          string `json:"status"`
	TodayTrafficIn  int64  `json:"todayTrafficIn"`
	TodayTrafficOut int64  `json:"todayTrafficOut"`
	CurConns        int64  `json:"curConns"`
	LastStartTime   string `json:"lastStartTime"`
	LastCloseTime   string `json:"lastCloseTime"`
}

type proxyListResponse struct {
	Proxies []ProxyStatus `json:"proxies"`
}

// NewClient creates an admin API client for the server at baseURL
// (e.g. "http://127.0.0.1:7500"). User and password may be empty when the
// admin server runs without authentication.
func NewClient(baseURL, user, password string) *Client {
	return &Client{
		baseURL:    baseURL,
		user:       user,
		password:   password,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Healthz checks whether the admin API is reachable and healthy.
func (c *Client) Healthz(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed, status: %d", resp.StatusCode)
	}
	return nil
}

// ServerInfo fetches the server's runtime summary.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/serverinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch server info, status: %d", resp.StatusCode)
	}

	var info ServerInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode server info: %w", err)
	}
	return &info, nil
}

// ListProxies returns the proxies of the given type ("tcp", "udp", "http",
// "https", "stcp", "sudp") currently registered on the server.
func (c *Client) ListProxies(ctx context.Context, proxyType string) ([]ProxyStatus, error) {
	url := fmt.Sprintf("%s/api/proxy/%s", c.baseURL, proxyType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list proxies: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list proxies, status: %d", resp.StatusCode)
	}

	var list proxyListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode proxy list: %w", err)
	}
	return list.Proxies, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	return c.httpClient.Do(req)
}
