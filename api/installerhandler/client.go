package installerhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ruteri/installer-provisioning-backend/api"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/ruteri/installer-provisioning-backend/tokens"
)

// StatusError is returned by Client when the server answers with an
// unexpected status code.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the installer endpoints of a remote server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ api.TokenProvider     = (*Client)(nil)
	_ api.InstallerProvider = (*Client)(nil)
)

// NewClient creates a client for the server at baseURL.
//
// Parameters:
//   - baseURL: server origin, e.g. "https://installer.example.com"
//   - httpClient: client used for requests, http.DefaultClient when nil
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateToken issues a token binding appID to entityID.
func (c *Client) CreateToken(ctx context.Context, appID, entityID uint64) (*interfaces.InstallationToken, error) {
	query := url.Values{}
	query.Set("appId", strconv.FormatUint(appID, 10))
	query.Set("entityId", strconv.FormatUint(entityID, 10))

	resp, err := c.do(ctx, http.MethodPost, "/installer/token?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var token interfaces.InstallationToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("could not parse token response: %w", err)
	}
	return &token, nil
}

// DeleteToken deletes a token by value.
func (c *Client) DeleteToken(ctx context.Context, token string) error {
	body, err := json.Marshal(api.TokenRequest{InstallToken: token})
	if err != nil {
		return fmt.Errorf("could not encode request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodDelete, "/installer/token", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

// ListTokens returns every token stored on the server.
func (c *Client) ListTokens(ctx context.Context) ([]interfaces.InstallationToken, error) {
	resp, err := c.do(ctx, http.MethodGet, "/installer/tokens", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var list []interfaces.InstallationToken
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("could not parse token list: %w", err)
	}
	return list, nil
}

// Download writes the provisioning script for token to w. It returns the
// archive id the server reported, or "" when the script was not archived.
func (c *Client) Download(ctx context.Context, token string, w io.Writer) (string, error) {
	query := url.Values{}
	query.Set("install_token", token)

	resp, err := c.do(ctx, http.MethodGet, "/installer/download?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("could not read installer script: %w", err)
	}
	return resp.Header.Get(api.ScriptIDHeader), nil
}

// Register reports a completed installation.
func (c *Client) Register(ctx context.Context, registration interfaces.Registration) error {
	body, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("could not encode registration: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, interfaces.RegisterPath, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// InspectToken decodes token claims locally without verifying the signature.
func InspectToken(token string) (interfaces.TokenClaims, error) {
	return tokens.DecodeUnchecked(token)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send %s request: %w", method, err)
	}
	return resp, nil
}

// statusError builds a StatusError from resp, taking the message from a JSON
// error body or the plain-text body.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	var body api.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
