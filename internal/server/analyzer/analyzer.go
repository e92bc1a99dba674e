// Package analyzer assigns a sentiment category to a transcript.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
)

// Analyzer returns one of common.CategoryPositive, CategoryNeutral or
// CategoryNegative, or whatever name the remote service chooses.
type Analyzer interface {
	Categorize(ctx context.Context, text string) (string, error)
}

// New returns an HTTP analyzer for endpoint, or the lexicon analyzer when
// endpoint is empty.
func New(endpoint string, timeout time.Duration) Analyzer {
	if strings.TrimSpace(endpoint) == "" {
		return NewLexicon()
	}
	return NewHTTP(endpoint, timeout)
}

// HTTP posts {"text": ...} and expects {"category": ...}.
type HTTP struct {
	endpoint string
	http     *http.Client
}

func NewHTTP(endpoint string, timeout time.Duration) *HTTP {
	return &HTTP{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

func (a *HTTP) Categorize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("analyzer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyzer: %w: %v", common.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("analyzer: %w: status %d: %s", common.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("analyzer: %w: invalid json: %v", common.ErrUpstream, err)
	}
	if out.Category == "" {
		return "", fmt.Errorf("analyzer: %w: empty category", common.ErrUpstream)
	}
	return out.Category, nil
}
