// Package client is the typed HTTP client the front-end tier uses to talk
// to the core ingestion API. The core service owns all file state; this
// client only relays it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docbridge/backend/internal/domain"
)

type Options struct {
	BaseURL string

	Timeout    time.Duration
	MaxRetries int

	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: hc,
	}, nil
}

func NewFromEnv() (*Client, error) {
	timeoutSeconds := intFromEnv("CORE_API_TIMEOUT_SECONDS", 30)
	maxRetries := intFromEnv("CORE_API_MAX_RETRIES", 1)

	return New(Options{
		BaseURL:    getEnv("CORE_API_BASE_URL", "http://localhost:8080"),
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
		MaxRetries: maxRetries,
	})
}

func (c *Client) BaseURL() string { return c.baseURL }

// UploadFile posts the payload as multipart form data and returns the core
// record. The body is streamed through a pipe so a large payload is never
// buffered whole. Uploads are not retried: the core side may have partially
// acted on a failed attempt and duplicate uploads are worse than an error.
func (c *Client) UploadFile(ctx context.Context, name, contentType string, r io.Reader) (*domain.FileRecord, error) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	go func() {
		fw, err := w.CreatePart(filePartHeader(name, contentType))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(fw, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(w.Close())
	}()

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx2, http.MethodPost, c.baseURL+"/file", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoreUnavailable, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp.StatusCode, raw)
	}

	var record domain.FileRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) GetFile(ctx context.Context, id uuid.UUID) (*domain.FileRecord, error) {
	var record domain.FileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/file/"+id.String(), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) GetStatus(ctx context.Context, id uuid.UUID) (domain.Status, error) {
	var payload struct {
		Status domain.Status `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/file/"+id.String()+"/status", &payload); err != nil {
		return "", err
	}
	return payload.Status, nil
}

func (c *Client) ListFiles(ctx context.Context) ([]*domain.FileRecord, error) {
	var records []*domain.FileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/files", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteFile removes the file on the core side. A clean delete answers with
// the record itself; a delete that finished with chunk cleanup still pending
// answers with {"file": ..., "note": ...}. Both count as deleted.
func (c *Client) DeleteFile(ctx context.Context, id uuid.UUID) (*domain.FileRecord, error) {
	var payload struct {
		domain.FileRecord
		File *domain.FileRecord `json:"file"`
		Note string             `json:"note"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/file/"+id.String(), &payload); err != nil {
		return nil, err
	}
	if payload.File != nil {
		return payload.File, nil
	}
	return &payload.FileRecord, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, out any) error {
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	backoff := 250 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx2.Err() != nil {
			return fmt.Errorf("%w: %v", ErrCoreUnavailable, ctx2.Err())
		}

		req, err := http.NewRequestWithContext(ctx2, method, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrCoreUnavailable, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				return readErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				err := statusError(resp.StatusCode, raw)
				// A definitive answer from the core is not retried.
				if resp.StatusCode < 500 {
					return err
				}
				lastErr = err
			} else {
				if out == nil {
					return nil
				}
				return json.Unmarshal(raw, out)
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx2.Done():
				return fmt.Errorf("%w: %v", ErrCoreUnavailable, ctx2.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: request failed", ErrCoreUnavailable)
	}
	return lastErr
}

var partNameEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func filePartHeader(name, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, partNameEscaper.Replace(name)))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
