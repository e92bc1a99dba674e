package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/client/apiclient"
	"github.com/dmitrijs2005/audioscribe/internal/client/config"
	"github.com/dmitrijs2005/audioscribe/internal/client/session"
)

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

var errNotLoggedIn = errors.New("not logged in, run 'login' first")

// API is the server surface used by the commands.
type API interface {
	Health(ctx context.Context) error
	Register(ctx context.Context, in apiclient.RegisterRequest) (int64, error)
	SendOTP(ctx context.Context, email string) (*apiclient.OTPChallenge, error)
	VerifyOTP(ctx context.Context, email, otp string) (*apiclient.LoginResult, error)
	CheckSession(ctx context.Context) (*apiclient.SessionStatus, error)
	Refresh(ctx context.Context) (string, error)
	SignOut(ctx context.Context) error
	ListFiles(ctx context.Context, opts apiclient.ListFilesOptions) ([]apiclient.AudioFile, error)
	ListStatuses(ctx context.Context) ([]apiclient.Status, error)
	Upload(ctx context.Context, files []apiclient.UploadFile) ([]apiclient.AudioFile, error)
	GetFile(ctx context.Context, id int64) (*apiclient.AudioFile, error)
	DeleteFile(ctx context.Context, id int64) error
	DownloadURL(ctx context.Context, id int64) (string, error)
	Transcribe(ctx context.Context, fileID int64) (*apiclient.TranscriptionResult, error)
	TranscribeFile(ctx context.Context, f apiclient.UploadFile, fileID int64) (*apiclient.TranscriptionResult, error)
	ListTranscriptions(ctx context.Context, fileID int64) ([]apiclient.Transcription, error)
	StartSentiment(ctx context.Context, in apiclient.SentimentRequest) ([]apiclient.SentimentResult, error)
	ListSentiment(ctx context.Context) ([]apiclient.SentimentAnalysis, error)

	Cookies() map[string]string
	RestoreCookies(map[string]string)
	SetToken(token string)
	HTTPClient() *http.Client
}

// SessionStore persists the login between runs.
type SessionStore interface {
	Load(ctx context.Context) (*session.Session, error)
	Save(ctx context.Context, sess *session.Session) error
	UpdateToken(ctx context.Context, token string, cookies map[string]string) error
	Clear(ctx context.Context) error
	Close() error
}

type App struct {
	config *config.Config
	api    API
	store  SessionStore
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer

	mu         sync.Mutex
	sess       *session.Session
	mode       Mode
	monitor    *session.Monitor
	watchToken bool
}

// NewApp restores a saved login, if any, into api.
func NewApp(ctx context.Context, c *config.Config, api API, store SessionStore, in io.Reader, out io.Writer) (*App, error) {
	a := &App{
		config: c,
		api:    api,
		store:  store,
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}

	sess, err := store.Load(ctx)
	switch {
	case errors.Is(err, session.ErrNoSession):
	case err != nil:
		return nil, err
	default:
		a.sess = sess
		api.RestoreCookies(sess.Cookies)
		api.SetToken(sess.Token)
	}
	return a, nil
}

func (a *App) Close() error {
	a.stopMonitor()
	return a.store.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) currentSession() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess
}

func (a *App) isLoggedIn() bool {
	return a.currentSession() != nil
}

// setSession persists sess and, in the shell, restarts the expiry monitor.
func (a *App) setSession(ctx context.Context, sess *session.Session) error {
	if err := a.store.Save(ctx, sess); err != nil {
		return err
	}
	a.mu.Lock()
	a.sess = sess
	a.mu.Unlock()
	a.restartMonitor()
	return nil
}

func (a *App) clearSession(ctx context.Context) error {
	a.stopMonitor()
	a.mu.Lock()
	a.sess = nil
	a.mu.Unlock()
	a.api.SetToken("")
	return a.store.Clear(ctx)
}

// authed runs fn for a logged in user. On a 401 the session is refreshed
// once and fn is retried; a failed refresh logs the user out.
func (a *App) authed(ctx context.Context, fn func(ctx context.Context) error) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	err := fn(ctx)
	if !apiclient.IsUnauthorized(err) {
		return err
	}

	token, rerr := a.api.Refresh(ctx)
	if rerr != nil {
		if cerr := a.clearSession(ctx); cerr != nil {
			return cerr
		}
		return errors.New("session expired, please login again")
	}

	if err := a.store.UpdateToken(ctx, token, a.api.Cookies()); err != nil {
		return err
	}
	sess, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.sess = sess
	a.mu.Unlock()
	a.restartMonitor()

	return fn(ctx)
}

func (a *App) restartMonitor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.watchToken || a.sess == nil {
		return
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
	a.monitor = session.NewMonitor(a.sess.Token, a.onSessionExpired)
}

func (a *App) stopMonitor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.monitor != nil {
		a.monitor.Stop()
		a.monitor = nil
	}
}

func (a *App) onSessionExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.mu.Lock()
	a.sess = nil
	a.monitor = nil
	a.mu.Unlock()
	a.api.SetToken("")

	a.printf("\nSession expired. Please login again.\n")
	if err := a.store.Clear(ctx); err != nil {
		a.printf("Error: could not clear saved session: %v\n", err)
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.printf("Server is %s\n", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// StartOnlineStatusWatcher probes the server every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Health(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) status() string {
	var parts []string
	if sess := a.currentSession(); sess != nil {
		parts = append(parts, sess.Email)
	}
	if m := a.currentMode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}
