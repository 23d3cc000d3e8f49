package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pvectl/pvectl/pkg/types"
)

// Client is an HTTP client for the hypervisor's JSON API. It holds the auth
// ticket obtained by Login and attaches it as a cookie to every request.
type Client struct {
	baseURL    string
	httpClient *http.Client

	ticket *types.AuthTicket
}

// NewClient creates a new API client for the given server base URL, e.g.
// "https://pve1.example.com:8006". verifyTLS disables certificate checks
// when false, which is common for self-signed hypervisor certs.
func NewClient(baseURL string, verifyTLS bool) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifyTLS},
			},
		},
	}
}

// apiResponse is the standard envelope wrapping every API payload.
type apiResponse struct {
	Data json.RawMessage `json:"data"`
}

// doRequest performs an API request with ticket-cookie authentication and
// decodes the "data" envelope into out (which may be nil for calls whose
// result is ignored).
func (c *Client) doRequest(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.ticket != nil {
		req.AddCookie(&http.Cookie{Name: "PVEAuthCookie", Value: c.ticket.Ticket})
		if method != http.MethodGet {
			req.Header.Set("CSRFPreventionToken", c.ticket.CSRFToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Login exchanges username/password for an auth ticket and stores it on the
// client for subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) (*types.AuthTicket, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	var ticket types.AuthTicket
	if err := c.doRequest(ctx, http.MethodPost, "/api2/json/access/ticket", form, &ticket); err != nil {
		return nil, err
	}
	if ticket.Ticket == "" {
		return nil, fmt.Errorf("server returned empty ticket")
	}

	c.ticket = &ticket
	return &ticket, nil
}

// AuthCookie returns the cookie header value for the current ticket, or ""
// if Login has not succeeded.
func (c *Client) AuthCookie() string {
	if c.ticket == nil {
		return ""
	}
	return "PVEAuthCookie=" + c.ticket.Ticket
}

// ListGuests lists all VMs and containers in the cluster.
func (c *Client) ListGuests(ctx context.Context) ([]types.Guest, error) {
	var guests []types.Guest
	if err := c.doRequest(ctx, http.MethodGet, "/api2/json/cluster/resources?type=vm", nil, &guests); err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	return guests, nil
}

// GuestState returns the current status of one guest.
func (c *Client) GuestState(ctx context.Context, node string, gtype types.GuestType, vmid int) (*types.GuestState, error) {
	path := fmt.Sprintf("/api2/json/nodes/%s/%s/%d/status/current", node, gtype, vmid)

	var state types.GuestState
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &state); err != nil {
		return nil, fmt.Errorf("guest status: %w", err)
	}
	return &state, nil
}

// StartGuest requests a guest start. The hypervisor runs the start as an
// async task; this call returns as soon as the task is queued.
func (c *Client) StartGuest(ctx context.Context, node string, gtype types.GuestType, vmid int) error {
	path := fmt.Sprintf("/api2/json/nodes/%s/%s/%d/status/start", node, gtype, vmid)
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("start guest: %w", err)
	}
	return nil
}

// StopGuest requests a hard stop of a guest.
func (c *Client) StopGuest(ctx context.Context, node string, gtype types.GuestType, vmid int) error {
	path := fmt.Sprintf("/api2/json/nodes/%s/%s/%d/status/stop", node, gtype, vmid)
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("stop guest: %w", err)
	}
	return nil
}

// TermProxy requests a terminal proxy session for a guest. The returned
// port + ticket pair authorizes one console WebSocket connection and
// expires within seconds if unused.
func (c *Client) TermProxy(ctx context.Context, node string, gtype types.GuestType, vmid int) (*types.TermProxy, error) {
	path := fmt.Sprintf("/api2/json/nodes/%s/%s/%d/termproxy", node, gtype, vmid)

	var tp types.TermProxy
	if err := c.doRequest(ctx, http.MethodPost, path, nil, &tp); err != nil {
		return nil, fmt.Errorf("termproxy: %w", err)
	}
	if tp.Ticket == "" {
		return nil, fmt.Errorf("termproxy: server returned empty ticket")
	}
	return &tp, nil
}

// ConsoleEndpoint builds the WebSocket URL for the console of a guest,
// embedding the port and ticket returned by TermProxy.
func (c *Client) ConsoleEndpoint(node string, gtype types.GuestType, vmid int, tp *types.TermProxy) string {
	scheme := "wss"
	if strings.HasPrefix(c.baseURL, "http://") {
		scheme = "ws"
	}
	host := strings.TrimPrefix(strings.TrimPrefix(c.baseURL, "https://"), "http://")

	q := url.Values{
		"port":      {fmt.Sprintf("%d", tp.Port)},
		"vncticket": {tp.Ticket},
	}
	return fmt.Sprintf("%s://%s/api2/json/nodes/%s/%s/%d/vncwebsocket?%s",
		scheme, host, node, gtype, vmid, q.Encode())
}
