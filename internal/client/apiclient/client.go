// Package apiclient is a REST client for the AudioScribe HTTP API. The
// access-token and refresh-token cookies issued by the server are tracked by
// name and can be exported for persistence between CLI invocations.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
)

// Client talks to one server. The session cookies are kept by the client
// itself rather than in a cookiejar: the server marks them Secure, and a jar
// never sends Secure cookies to an http:// URL such as a local server.
type Client struct {
	baseURL *url.URL
	http    *http.Client

	mu      sync.Mutex
	token   string
	cookies map[string]string
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http(s): %q", baseURL)
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		cookies: make(map[string]string),
	}, nil
}

// HTTPClient exposes the underlying client, e.g. for presigned downloads.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// SetToken makes the client send token as a Bearer credential in addition
// to the cookies.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Cookies returns the session cookies currently held for the server.
func (c *Client) Cookies() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.cookies))
	for name, value := range c.cookies {
		out[name] = value
	}
	return out
}

// RestoreCookies replaces the session cookies with previously exported ones.
// Names other than the session cookies are ignored.
func (c *Client) RestoreCookies(cookies map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = make(map[string]string, len(cookies))
	for name, value := range cookies {
		if isSessionCookie(name) && value != "" {
			c.cookies[name] = value
		}
	}
}

func isSessionCookie(name string) bool {
	return name == common.AccessTokenCookieName || name == common.RefreshTokenCookieName
}

// prepare adds the credentials to req.
func (c *Client) prepare(req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}
	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		if value, ok := c.cookies[name]; ok {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}
}

// remember applies the session cookies set by resp. A cookie with a negative
// Max-Age, an empty value or an expiry in the past is dropped.
func (c *Client) remember(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range resp.Cookies() {
		if !isSessionCookie(ck.Name) {
			continue
		}
		expired := !ck.Expires.IsZero() && ck.Expires.Before(time.Now())
		if ck.MaxAge < 0 || ck.Value == "" || expired {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck.Value
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.remember(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, nil, body, contentType, out)
}

// doMultipart streams parts into the request body. fields are written
// before the files.
func (c *Client) doMultipart(ctx context.Context, path string, fields [][2]string, files []UploadFile, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, files)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	err := c.do(ctx, http.MethodPost, path, nil, pr, mw.FormDataContentType(), out)
	_ = pr.Close()
	return err
}

func writeMultipart(mw *multipart.Writer, fields [][2]string, files []UploadFile) error {
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("file", f.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return err
		}
	}
	return nil
}

// Health checks that the server and its database are reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (int64, error) {
	var out struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/register/createUser", in, &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

func (c *Client) SendOTP(ctx context.Context, email string) (*OTPChallenge, error) {
	var out OTPChallenge
	if err := c.doJSON(ctx, http.MethodPost, "/login/send-otp", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP completes the login. On success the session cookies are held by
// the client and the returned token is also used as Bearer credential.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*LoginResult, error) {
	var out LoginResult
	in := map[string]string{"email": email, "otp": otp}
	if err := c.doJSON(ctx, http.MethodPost, "/login/verify-otp", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) CheckSession(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.doJSON(ctx, http.MethodGet, "/login/check-session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates the refresh token cookie and returns the new session token.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"jwt_token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/login/refresh", nil, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// SignOut revokes the refresh token and forgets local credentials even when
// the request fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/login/sign-out", nil, nil)
	c.mu.Lock()
	c.token = ""
	c.cookies = make(map[string]string)
	c.mu.Unlock()
	return err
}

func (c *Client) ListFiles(ctx context.Context, opts ListFilesOptions) ([]AudioFile, error) {
	q := url.Values{}
	if opts.StatusID > 0 {
		q.Set("status_id", strconv.Itoa(opts.StatusID))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	var out []AudioFile
	if err := c.do(ctx, http.MethodGet, "/uploadedFiles/getFiles", q, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	var out []Status
	if err := c.doJSON(ctx, http.MethodGet, "/uploadedFiles/getStatus", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload sends files in one multipart request. Each file's Duration is
// sent as a "duration" field in the same order.
func (c *Client) Upload(ctx context.Context, files []UploadFile) ([]AudioFile, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to upload")
	}

	fields := make([][2]string, 0, len(files))
	for _, f := range files {
		fields = append(fields, [2]string{"duration", f.Duration})
	}

	var out struct {
		Files []AudioFile `json:"files"`
	}
	if err := c.doMultipart(ctx, "/uploadedFiles/upload", fields, files, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) GetFile(ctx context.Context, id int64) (*AudioFile, error) {
	var out AudioFile
	if err := c.doJSON(ctx, http.MethodGet, "/uploadedFiles/files/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFile(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/uploadedFiles/files/"+strconv.FormatInt(id, 10), nil, nil)
}

// DownloadURL returns a presigned URL for the stored audio of file id.
func (c *Client) DownloadURL(ctx context.Context, id int64) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	path := "/uploadedFiles/files/" + strconv.FormatInt(id, 10) + "/download"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Transcribe transcribes an already uploaded file.
func (c *Client) Transcribe(ctx context.Context, fileID int64) (*TranscriptionResult, error) {
	var out TranscriptionResult
	if err := c.doJSON(ctx, http.MethodPost, "/transcribe/files/"+strconv.FormatInt(fileID, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TranscribeFile uploads f for transcription. A zero fileID makes the
// server store f as a new file.
func (c *Client) TranscribeFile(ctx context.Context, f UploadFile, fileID int64) (*TranscriptionResult, error) {
	var fields [][2]string
	if fileID > 0 {
		fields = append(fields, [2]string{"file_id", strconv.FormatInt(fileID, 10)})
	}
	if f.Duration != "" {
		fields = append(fields, [2]string{"duration", f.Duration})
	}

	var out TranscriptionResult
	if err := c.doMultipart(ctx, "/transcribe/transcription", fields, []UploadFile{f}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTranscriptions returns transcripts, optionally only those of fileID.
func (c *Client) ListTranscriptions(ctx context.Context, fileID int64) ([]Transcription, error) {
	q := url.Values{}
	if fileID > 0 {
		q.Set("file_id", strconv.FormatInt(fileID, 10))
	}

	var out []Transcription
	if err := c.do(ctx, http.MethodGet, "/transcribe/transcriptions", q, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartSentiment analyzes the given files. When every file fails the
// per-file results are returned together with the *APIError.
func (c *Client) StartSentiment(ctx context.Context, in SentimentRequest) ([]SentimentResult, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	var out struct {
		Results []SentimentResult `json:"results"`
	}
	err = c.do(ctx, http.MethodPost, "/sentiment/start", nil, bytes.NewReader(b), "application/json", &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
			return apiErr.Results, err
		}
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListSentiment(ctx context.Context) ([]SentimentAnalysis, error) {
	var out []SentimentAnalysis
	if err := c.doJSON(ctx, http.MethodGet, "/sentiment/results", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
