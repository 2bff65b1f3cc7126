// Package apiclient talks to the EchoCare backend on behalf of the pages.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrTransport marks failures where no usable response arrived: the server
// was unreachable or answered with something that is not JSON.
var ErrTransport = errors.New("apiclient: transport failure")

// APIError is a non-2xx response carrying the server's error string.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apiclient: status %d", e.Status)
	}
	return fmt.Sprintf("apiclient: status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  uint64 `json:"user_id"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	if err := c.post(ctx, "/api/login", "", credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	if err := c.post(ctx, "/api/register", "", credentials{username, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the bearer token. The response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, "/api/logout", token, nil, nil)
}

type chatReq struct {
	Message string `json:"message"`
}

type chatResp struct {
	Response string `json:"response"`
}

// Chat calls the legacy single-chat endpoint.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out chatResp
	if err := c.post(ctx, "/chat", "", chatReq{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, path, token string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return errors.Wrap(err, "apiclient: encode request")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &body)
	if err != nil {
		return errors.Wrap(err, "apiclient: build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return errors.WithMessage(ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
			return errors.WithMessagef(ErrTransport, "status %d with undecodable body", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WithMessagef(ErrTransport, "decode %s response: %v", path, err)
	}
	return nil
}
