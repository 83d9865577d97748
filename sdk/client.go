// Package sdk is a Go client for the sync server HTTP API. It mirrors the
// wire surface one to one: PascalCase JSON bodies, the RequestResult
// envelope, and credential headers (or a bearer token after Login).
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/cryptox"
)

const apiPrefix = "/api/v1"

// Legacy registration error codes inside the envelope.
const (
	errorCodeLoginExists = 100
	errorCodeEmailExists = 101
)

// Client talks to one sync server on behalf of one user and, optionally, one
// device. Credentials are attached to every request; Login upgrades the
// client to a bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client

	login    string
	password string
	device   string
	token    string
}

type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDevice binds all requests to a device name.
func WithDevice(name string) Option {
	return func(c *Client) { c.device = name }
}

// NewClient builds a client. The password is hashed client side; the server
// never sees the plaintext.
func NewClient(baseURL, login, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		login:      login,
		password:   cryptox.PasswordHash(password),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	HasError     bool            `json:"HasError"`
	ErrorCode    int             `json:"ErrorCode"`
	ErrorMessage string          `json:"ErrorMessage"`
	Content      json.RawMessage `json:"Content"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.Header.Set("x-indiarose-login", c.login)
		req.Header.Set("x-indiarose-password", c.password)
		if c.device != "" {
			req.Header.Set("x-indiarose-device", c.device)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	if err := statusError(resp.StatusCode, &env); err != nil {
		return err
	}

	if out != nil && len(env.Content) > 0 {
		if err := json.Unmarshal(env.Content, out); err != nil {
			return fmt.Errorf("error decoding content: %w", err)
		}
	}
	return nil
}

func statusError(status int, env *envelope) error {
	if status >= 200 && status < 300 {
		if !env.HasError {
			return nil
		}
		switch env.ErrorCode {
		case errorCodeLoginExists:
			return common.ErrorLoginExists
		case errorCodeEmailExists:
			return common.ErrorEmailExists
		default:
			return fmt.Errorf("server error %d: %s", env.ErrorCode, env.ErrorMessage)
		}
	}

	switch status {
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusConflict:
		return common.ErrorConflict
	case http.StatusBadRequest:
		return common.ErrorBadRequest
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	default:
		return fmt.Errorf("unexpected status %d: %s", status, env.ErrorMessage)
	}
}

// Register creates the user account.
func (c *Client) Register(ctx context.Context, email string) error {
	body := map[string]string{"Login": c.login, "Email": email, "Password": c.password}
	return c.do(ctx, http.MethodPost, "/users/register", body, nil)
}

// Login exchanges credentials for a bearer token used on later requests.
func (c *Client) Login(ctx context.Context) error {
	body := map[string]string{"Login": c.login, "Password": c.password, "Device": c.device}
	var out struct {
		Token string `json:"Token"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// CreateDevice registers a device name under the account.
func (c *Client) CreateDevice(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/devices/create", map[string]string{"Name": name}, nil)
}

// RenameDevice renames an existing device.
func (c *Client) RenameDevice(ctx context.Context, actualName, newName string) error {
	body := map[string]string{"ActualName": actualName, "NewName": newName}
	return c.do(ctx, http.MethodPost, "/devices/rename", body, nil)
}

// ListDevices returns the device names of the account.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var out []Device
	if err := c.do(ctx, http.MethodGet, "/devices/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LastSettings returns the newest settings blob of the bound device.
func (c *Client) LastSettings(ctx context.Context) (*Settings, error) {
	var out Settings
	if err := c.do(ctx, http.MethodGet, "/settings/last", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings appends a new settings blob for the bound device.
func (c *Client) UpdateSettings(ctx context.Context, data string) (*Settings, error) {
	var out Settings
	if err := c.do(ctx, http.MethodPost, "/settings/update", map[string]string{"Data": data}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SettingsAt returns one settings version of the bound device.
func (c *Client) SettingsAt(ctx context.Context, version int64) (*Settings, error) {
	var out Settings
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/settings/get/%d", version), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SettingsList returns every settings version of the bound device, newest
// first.
func (c *Client) SettingsList(ctx context.Context) ([]Settings, error) {
	var out []Settings
	if err := c.do(ctx, http.MethodGet, "/settings/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Versions lists closed collection versions, newest first. from <= 0 lists
// all of them.
func (c *Client) Versions(ctx context.Context, from int64) ([]Version, error) {
	path := "/versions/all"
	if from > 0 {
		path = fmt.Sprintf("/versions/all/%d", from)
	}
	var out []Version
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateVersion opens a new version owned by the bound device.
func (c *Client) CreateVersion(ctx context.Context) (*Version, error) {
	var out Version
	if err := c.do(ctx, http.MethodPost, "/versions/create", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseVersion commits a version, making it visible to every device.
func (c *Client) CloseVersion(ctx context.Context, number int64) (*Version, error) {
	var out Version
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/versions/close/%d", number), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Collection returns the newest collection tree visible to the bound device.
func (c *Client) Collection(ctx context.Context) ([]*Indiagram, error) {
	var out []*Indiagram
	if err := c.do(ctx, http.MethodGet, "/indiagrams/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CollectionAt returns the collection tree as of a closed version.
func (c *Client) CollectionAt(ctx context.Context, version int64) ([]*Indiagram, error) {
	var out []*Indiagram
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/indiagrams/all/%d", version), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Indiagram returns one item at its newest visible snapshot.
func (c *Client) Indiagram(ctx context.Context, id int64) (*Indiagram, error) {
	var out Indiagram
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/indiagrams/indiagrams/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IndiagramAt returns one item as of a closed version.
func (c *Client) IndiagramAt(ctx context.Context, id, version int64) (*Indiagram, error) {
	var out Indiagram
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/indiagrams/indiagrams/%d/%d", id, version), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateIndiagram creates (req.ID < 0) or edits one item inside an open
// version.
func (c *Client) UpdateIndiagram(ctx context.Context, req *IndiagramUpdate) (*Indiagram, error) {
	var out Indiagram
	if err := c.do(ctx, http.MethodPost, "/indiagrams/indiagrams/update", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateIndiagrams applies a whole batch; placeholder ids below -1 may be
// referenced as parents inside the batch.
func (c *Client) UpdateIndiagrams(ctx context.Context, reqs []*IndiagramUpdate) ([]MappedIndiagram, error) {
	var out []MappedIndiagram
	if err := c.do(ctx, http.MethodPost, "/indiagrams/indiagrams/updates", reqs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Image downloads the image of an item. version <= 0 means latest.
func (c *Client) Image(ctx context.Context, id, version int64) (*File, error) {
	return c.file(ctx, "images", id, version)
}

// Sound downloads the sound of an item. version <= 0 means latest.
func (c *Client) Sound(ctx context.Context, id, version int64) (*File, error) {
	return c.file(ctx, "sounds", id, version)
}

func (c *Client) file(ctx context.Context, kind string, id, version int64) (*File, error) {
	path := fmt.Sprintf("/indiagrams/%s/%d", kind, id)
	if version > 0 {
		path = fmt.Sprintf("/indiagrams/%s/%d/%d", kind, id, version)
	}
	var out File
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage attaches image bytes to an item's snapshot in an open version.
func (c *Client) UploadImage(ctx context.Context, id, version int64, filename string, content []byte) error {
	return c.upload(ctx, "images", id, version, filename, content)
}

// UploadSound attaches sound bytes to an item's snapshot in an open version.
func (c *Client) UploadSound(ctx context.Context, id, version int64, filename string, content []byte) error {
	return c.upload(ctx, "sounds", id, version, filename, content)
}

func (c *Client) upload(ctx context.Context, kind string, id, version int64, filename string, content []byte) error {
	body := &fileUpload{Filename: filename, Content: content}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/indiagrams/%s/%d/%d", kind, id, version), body, nil)
}
