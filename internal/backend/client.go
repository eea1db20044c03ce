package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fieldline/planview/pkg/logger"
	"github.com/fieldline/planview/pkg/models"
)

const (
	MaxRetries = 3
	RetryDelay = 500 * time.Millisecond

	requestTimeout = 30 * time.Second
)

var (
	// ErrUnauthorized means the bearer token was rejected.
	ErrUnauthorized = errors.New("backend rejected credentials")

	// ErrNotFound means the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
)

// Client talks to the project backend: a PostgREST-style API plus a storage
// service that signs object URLs. Transport failures and 5xx responses are
// retried a bounded number of times with a fixed delay; 4xx responses are
// not retried.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient builds a client for the given backend base URL.
func NewClient(baseURL, apiKey, token string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  log,
	}
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignURL asks the storage service for a time-limited download URL for an
// object in a bucket.
func (c *Client) SignURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, bucket, objectPath)

	body, err := c.send(ctx, http.MethodPost, endpoint, signRequest{ExpiresIn: int(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("failed to sign %s/%s: %w", bucket, objectPath, err)
	}

	var resp signResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse sign response: %w", err)
	}
	if resp.SignedURL == "" {
		return "", fmt.Errorf("sign response had no URL")
	}

	// The storage service returns a path relative to its own root.
	if strings.HasPrefix(resp.SignedURL, "/") {
		return c.baseURL + "/storage/v1" + resp.SignedURL, nil
	}
	return resp.SignedURL, nil
}

// ListDrawings returns the drawings recorded for a project.
func (c *Client) ListDrawings(ctx context.Context, projectID string) ([]models.Drawing, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/drawings?project_id=eq.%s&order=title.asc",
		c.baseURL, url.QueryEscape(projectID))

	body, err := c.send(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list drawings: %w", err)
	}

	var drawings []models.Drawing
	if err := json.Unmarshal(body, &drawings); err != nil {
		return nil, fmt.Errorf("failed to parse drawings: %w", err)
	}
	return drawings, nil
}

// GetDrawing fetches one drawing record.
func (c *Client) GetDrawing(ctx context.Context, id string) (models.Drawing, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/drawings?id=eq.%s", c.baseURL, url.QueryEscape(id))

	body, err := c.send(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Drawing{}, fmt.Errorf("failed to get drawing %s: %w", id, err)
	}

	var drawings []models.Drawing
	if err := json.Unmarshal(body, &drawings); err != nil {
		return models.Drawing{}, fmt.Errorf("failed to parse drawing: %w", err)
	}
	if len(drawings) == 0 {
		return models.Drawing{}, ErrNotFound
	}
	return drawings[0], nil
}

// ListProjects returns the projects visible to the current token.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	body, err := c.send(ctx, http.MethodGet, c.baseURL+"/rest/v1/projects?order=name.asc", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var projects []models.Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("failed to parse projects: %w", err)
	}
	return projects, nil
}

// ListClients returns the client companies visible to the current token.
func (c *Client) ListClients(ctx context.Context) ([]models.Client, error) {
	body, err := c.send(ctx, http.MethodGet, c.baseURL+"/rest/v1/clients?order=name.asc", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	var clients []models.Client
	if err := json.Unmarshal(body, &clients); err != nil {
		return nil, fmt.Errorf("failed to parse clients: %w", err)
	}
	return clients, nil
}

// DeleteAnnotations removes every stored annotation for a drawing. This is
// the only annotation persistence call the clients exercise.
func (c *Client) DeleteAnnotations(ctx context.Context, drawingID string) error {
	endpoint := fmt.Sprintf("%s/rest/v1/annotations?drawing_id=eq.%s", c.baseURL, url.QueryEscape(drawingID))

	if _, err := c.send(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return fmt.Errorf("failed to delete annotations for %s: %w", drawingID, err)
	}
	return nil
}

// Download streams a (usually signed) URL to destPath.
func (c *Client) Download(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp := destPath + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}

	return os.Rename(tmp, destPath)
}

// send performs one authenticated request with bounded retries.
func (c *Client) send(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if attempt > 1 {
			c.logger.Debug("Retrying %s %s (attempt %d/%d)", method, endpoint, attempt, MaxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(RetryDelay):
			}
		}

		body, retryable, err := c.doOnce(ctx, method, endpoint, reqBody)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", MaxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte) ([]byte, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("backend returned status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
}
