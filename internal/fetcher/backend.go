package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sessionchart/internal/live"
)

const (
	filesPath    = "/files"
	dataPath     = "/data"
	liveDataPath = "/live_data"
)

// BackendOptions parameterise the dashboard backend client.
type BackendOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Backend talks to the dashboard HTTP backend.
type Backend struct {
	opts    BackendOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewBackend constructs a backend client.
func NewBackend(opts BackendOptions, logger zerolog.Logger) *Backend {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}

	return &Backend{
		opts:    opts,
		logger:  logger.With().Str("component", "backend").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// ListFiles calls GET /files. An empty listing is not an error.
func (b *Backend) ListFiles(ctx context.Context, query FileQuery) ([]FileEntry, error) {
	params := url.Values{}
	params.Set("start_date", query.StartDate)
	params.Set("end_date", query.EndDate)
	params.Set("strategy", query.Strategy)

	req, err := b.newRequest(ctx, http.MethodGet, filesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	status, payload, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %v", ErrTransport, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: list files: %v", ErrTransport, parseHTTPError(status, payload))
	}

	files := make([]FileEntry, 0)
	if err := json.Unmarshal(payload, &files); err != nil {
		return nil, fmt.Errorf("%w: decode file list: %v", ErrTransport, err)
	}

	b.logger.Debug().Int("files", len(files)).Str("strategy", query.Strategy).Msg("file list fetched")
	return files, nil
}

// FetchRecords calls POST /data for one file. A {"error": ...} body is an
// upstream failure regardless of status code.
func (b *Backend) FetchRecords(ctx context.Context, fileID string) ([]RawRecord, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%w: file id required", ErrUpstream)
	}

	form := url.Values{}
	form.Set("file_id", fileID)

	req, err := b.newRequest(ctx, http.MethodPost, dataPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, payload, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: file %s: %v", ErrUpstream, fileID, err)
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return nil, fmt.Errorf("%w: file %s: %v", ErrUpstream, fileID, parseHTTPError(status, trimmed))
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: file %s: %v", ErrUpstream, fileID, parseHTTPError(status, payload))
	}

	records := make([]RawRecord, 0)
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: file %s: decode records: %v", ErrUpstream, fileID, err)
	}
	return records, nil
}

// FetchLive calls GET /live_data.
func (b *Backend) FetchLive(ctx context.Context) ([]live.Record, error) {
	req, err := b.newRequest(ctx, http.MethodGet, liveDataPath, nil)
	if err != nil {
		return nil, err
	}

	status, payload, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %v", ErrTransport, parseHTTPError(status, payload))
	}

	records := make([]live.Record, 0)
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: decode live data: %v", ErrTransport, err)
	}
	return records, nil
}

func (b *Backend) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "sessionchart/1.0")
	}
	return req, nil
}

func (b *Backend) do(req *http.Request) (int, []byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, payload, nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("backend error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("backend error (%d): %s", status, apiErr.Message)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("backend error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("backend error (%d)", status)
}

var _ Source = (*Backend)(nil)
