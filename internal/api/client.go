// Package api is the client for the todo backend: authentication, the
// current user's profile and todo resources.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/session"
	"github.com/google/uuid"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// NewClient builds a client for baseURL. A zero timeout leaves the request
// unbounded, like the default http.Client.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: timeout}, baseURL, logger)
}

func NewClientWithHTTP(httpClient *http.Client, baseURL string, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:     logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, auth *session.Auth, method, path string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		req.Header.Set("Authorization", auth.BearerHeader())
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnf("%s %s request=%s failed: %v", method, path, requestID, err)
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debugf("%s %s request=%s status=%d took=%s", method, path, requestID, resp.StatusCode, time.Since(started))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Kind: KindDecode, Status: resp.StatusCode, Err: err}
		}
		return nil
	}

	apiErr := decodeError(resp)
	c.logger.Infof("%s %s request=%s rejected: %s", method, path, requestID, apiErr.Error())
	return apiErr
}

func (c *Client) doAuthed(ctx context.Context, auth *session.Auth, method, path string, body any, out any) error {
	if auth == nil {
		return ErrNotAuthenticated
	}
	return c.do(ctx, auth, method, path, body, out)
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{Kind: KindRemote, Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return apiErr
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apiErr
	}
	if envelope.Error.Status != 0 {
		apiErr.Status = envelope.Error.Status
	}
	apiErr.Name = envelope.Error.Name
	apiErr.Message = envelope.Error.Message
	apiErr.Details = parseDetails(envelope.Error.Details)
	return apiErr
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
