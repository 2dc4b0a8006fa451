package myko

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/ports"
)

const (
	DefaultBaseURL = "https://api.myko.example/v1"
	DefaultTimeout = 10 * time.Second
)

var ErrDeviceNotFound = errors.New("myko device not found")

// APIError is a non-success reply from the Myko API that is not a
// connectivity problem.
type APIError struct {
	Method string
	Path   string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myko API %s %s: status %d", e.Method, e.Path, e.Status)
}

// Client talks to the Myko cloud API. It logs in lazily and once more when
// the token is rejected.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Login(ctx context.Context) error {
	payload := map[string]string{"username": c.username, "password": c.password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", payload, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("login: empty token")
	}
	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()
	return nil
}

func (c *Client) DiscoverDevices(ctx context.Context) ([]*model.Device, error) {
	var devices []*model.Device
	if err := c.do(ctx, http.MethodGet, "/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (c *Client) GetFunctions(ctx context.Context, childID string) ([]model.Function, error) {
	var functions []model.Function
	if err := c.do(ctx, http.MethodGet, devicePath(childID, "functions"), nil, &functions); err != nil {
		return nil, err
	}
	if functions == nil {
		functions = []model.Function{}
	}
	return functions, nil
}

// LookupChild asks the account's child index for the identifiers of the
// device named friendlyName. Discovery listings can omit them; the index
// cannot.
func (c *Client) LookupChild(ctx context.Context, friendlyName string) (*model.Device, error) {
	var d model.Device
	path := "/devices/lookup?friendlyName=" + url.QueryEscape(friendlyName)
	err := c.do(ctx, http.MethodGet, path, nil, &d)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, friendlyName)
	}
	if err != nil {
		return nil, err
	}
	if d.Incomplete() {
		return nil, fmt.Errorf("%w: %q has no complete record", ErrDeviceNotFound, friendlyName)
	}
	if d.FriendlyName == "" {
		d.FriendlyName = friendlyName
	}
	return &d, nil
}

func (c *Client) ReadState(ctx context.Context, childID string) (model.VendorState, error) {
	var state model.VendorState
	err := c.do(ctx, http.MethodGet, devicePath(childID, "state"), nil, &state)
	return state, err
}

func (c *Client) WriteState(ctx context.Context, childID string, delta model.VendorState) (model.VendorState, error) {
	var state model.VendorState
	err := c.do(ctx, http.MethodPut, devicePath(childID, "state"), delta, &state)
	return state, err
}

func (c *Client) WriteField(ctx context.Context, childID string, cmd model.FieldCommand) (model.VendorState, error) {
	var state model.VendorState
	err := c.do(ctx, http.MethodPost, devicePath(childID, "command"), cmd, &state)
	return state, err
}

func devicePath(childID, leaf string) string {
	return "/devices/" + url.PathEscape(childID) + "/" + leaf
}

// do sends an authenticated request, logging in first if needed and retrying
// once after a 401.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
		return c.do(ctx, method, path, body, out)
	}

	err := c.send(ctx, method, path, token, body, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		log.Debug().Str("path", path).Msg("Myko token rejected, logging in again")
		if err := c.Login(ctx); err != nil {
			return err
		}
		c.mu.RLock()
		token = c.token
		c.mu.RUnlock()
		return c.send(ctx, method, path, token, body, out)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %w", ports.ErrConnectivity, &APIError{Method: method, Path: path, Status: resp.StatusCode})
	case resp.StatusCode >= 400:
		return &APIError{Method: method, Path: path, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
