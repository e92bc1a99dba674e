// Package transcriber forwards audio to the external speech-to-text service.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
)

const (
	defaultTimeout = 120 * time.Second
	formField      = "file"
	maxErrorBody   = 4 << 10
)

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename, contentType string, audio io.Reader) (*Result, error)
}

// Result is the upstream answer. Raw is the upstream JSON document as is.
type Result struct {
	Text string
	Raw  json.RawMessage
}

// UpstreamError reports a non-2xx answer from the service.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("transcription service returned %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return common.ErrUpstream }

type response struct {
	CleanTranscript string `json:"clean_transcript"`
	Transcript      string `json:"transcript"`
	Text            string `json:"text"`
}

// Client posts audio as multipart/form-data to a single endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout sets the whole-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe streams audio to the service. The transcript is taken from
// clean_transcript, then transcript, then text.
func (c *Client) Transcribe(ctx context.Context, filename, contentType string, audio io.Reader) (*Result, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(writer, filename, contentType, audio))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("transcriber: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("transcriber: %w: %v", common.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcriber: read response: %w", err)
	}

	var decoded response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("transcriber: %w: invalid json: %v", common.ErrUpstream, err)
	}

	return &Result{Text: pickText(decoded), Raw: json.RawMessage(bytes.TrimSpace(payload))}, nil
}

func writeForm(w *multipart.Writer, filename, contentType string, audio io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return err
	}
	return w.Close()
}

func pickText(r response) string {
	for _, s := range []string{r.CleanTranscript, r.Transcript, r.Text} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
