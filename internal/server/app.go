// Package server assembles and runs the AudioScribe backend: the HTTP API,
// the gRPC health endpoint and the OTP janitor.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/analyzer"
	"github.com/dmitrijs2005/audioscribe/internal/server/blobstore"
	"github.com/dmitrijs2005/audioscribe/internal/server/config"
	"github.com/dmitrijs2005/audioscribe/internal/server/httpapi"
	"github.com/dmitrijs2005/audioscribe/internal/server/mailer"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
	"github.com/dmitrijs2005/audioscribe/internal/server/transcriber"
	"github.com/dmitrijs2005/audioscribe/internal/telemetry"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/audioscribe/internal/server/grpc"
)

const serviceName = "audioscribe"

// Seams for tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newBlobStore         = func(ctx context.Context, opts blobstore.Options) (blobstore.Store, error) {
		return blobstore.New(ctx, opts)
	}
	setupTelemetry = telemetry.Setup
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	http            *httpapi.Server
	health          *gs.HealthServer
	janitor         *services.OTPJanitor
	shutdownTracing func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	shutdownTracing, err := setupTelemetry(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newBlobStore(ctx, blobstore.Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	mail := mailer.New(mailer.Options{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}, logger.With("module", "mailer"))

	tr := transcriber.NewClient(c.TranscriptionEndpoint, transcriber.WithTimeout(c.TranscriptionTimeout))
	an := analyzer.New(c.AnalysisEndpoint, c.AnalysisTimeout)

	users := services.NewUserService(db, rm, logger.With("module", "users"))
	login := services.NewLoginService(db, rm, mail, logger.With("module", "login"), c)
	files := services.NewFileService(db, rm, store, logger.With("module", "files"))
	transcriptions := services.NewTranscriptionService(db, rm, files, tr, logger.With("module", "transcription"))
	sentiments := services.NewSentimentService(db, rm, an, logger.With("module", "sentiment"))

	httpServer := httpapi.NewServer(c, httpapi.Dependencies{
		Users:          users,
		Login:          login,
		Files:          files,
		Transcriptions: transcriptions,
		Sentiments:     sentiments,
		Ping:           db.PingContext,
	}, logger.With("module", "http"))

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		http:            httpServer,
		health:          gs.NewHealthServer(c.EndpointAddrGRPC, logger, db.PingContext),
		janitor:         services.NewOTPJanitor(db, rm, logger.With("module", "janitor"), c.OTPRetentionDuration, c.OTPJanitorInterval),
		shutdownTracing: shutdownTracing,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then shuts everything down within the configured timeout.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var (
		wg      sync.WaitGroup
		errMu   sync.Mutex
		runErrs []error
	)
	fail := func(err error) {
		errMu.Lock()
		runErrs = append(runErrs, err)
		errMu.Unlock()
		cancelFunc()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := app.http.ListenAndServe(); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			fail(fmt.Errorf("http: %w", err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.health.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc health server failed", "error", err)
			fail(fmt.Errorf("grpc: %w", err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.janitor.Run(ctx); err != nil {
			fail(fmt.Errorf("janitor: %w", err))
		}
	}()

	<-ctx.Done()
	app.logger.Info(context.Background(), "Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.http.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown failed", "error", err)
	}

	wg.Wait()

	if err := app.shutdownTracing(shutdownCtx); err != nil {
		app.logger.Warn(shutdownCtx, "tracing flush failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(shutdownCtx, "db close failed", "error", err)
	}

	app.logger.Info(shutdownCtx, "Stopped")
	return errors.Join(runErrs...)
}
