// Package session keeps the CLI login between invocations and watches the
// session token for expiry.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/client/session/migrations"
	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const dbFileName = "session.db"

const (
	keyEmail     = "email"
	keyToken     = "token"
	keyExpiresAt = "expires_at"
	cookiePrefix = "cookie:"
)

// ErrNoSession is returned by Load when nobody is logged in.
var ErrNoSession = errors.New("no saved session")

// Session is what survives between CLI runs.
type Session struct {
	Email     string
	Token     string
	Cookies   map[string]string
	ExpiresAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open creates dir when needed and opens the session database inside it.
func Open(ctx context.Context, dir string) (*Store, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return OpenDSN(ctx, filepath.Join(dir, dbFileName))
}

// OpenDSN opens the session database at dsn and applies migrations.
func OpenDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("session migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := newKVRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}

		values := map[string]string{
			keyEmail: sess.Email,
			keyToken: sess.Token,
		}
		if !sess.ExpiresAt.IsZero() {
			values[keyExpiresAt] = sess.ExpiresAt.UTC().Format(time.RFC3339)
		}
		for name, value := range sess.Cookies {
			values[cookiePrefix+name] = value
		}

		for k, v := range values {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the stored session or ErrNoSession.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	values, err := newKVRepository(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	if values[keyToken] == "" && values[cookiePrefix+"refresh-token"] == "" {
		return nil, ErrNoSession
	}

	sess := &Session{
		Email:   values[keyEmail],
		Token:   values[keyToken],
		Cookies: make(map[string]string),
	}
	if v := values[keyExpiresAt]; v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("stored expiry: %w", err)
		}
		sess.ExpiresAt = t
	}
	for k, v := range values {
		if name, ok := strings.CutPrefix(k, cookiePrefix); ok {
			sess.Cookies[name] = v
		}
	}
	return sess, nil
}

// UpdateToken stores a refreshed token and cookies, keeping the email.
func (s *Store) UpdateToken(ctx context.Context, token string, cookies map[string]string) error {
	sess, err := s.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	if sess == nil {
		sess = &Session{}
	}

	sess.Token = token
	sess.Cookies = cookies
	sess.ExpiresAt = time.Time{}
	if exp, err := TokenExpiry(token); err == nil {
		sess.ExpiresAt = exp
	}
	return s.Save(ctx, sess)
}

// Clear forgets the stored session.
func (s *Store) Clear(ctx context.Context) error {
	return newKVRepository(s.db).Clear(ctx)
}
