// Package httpapi exposes the AudioScribe JSON API over gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/config"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the handlers call. Ping reports database
// health for /healthz and may be nil.
type Dependencies struct {
	Users          UserService
	Login          LoginService
	Files          FileService
	Transcriptions TranscriptionService
	Sentiments     SentimentService
	Ping           func(ctx context.Context) error
}

type Server struct {
	engine *gin.Engine
	srv    *http.Server
	logger logging.Logger
}

func NewServer(cfg *config.Config, deps Dependencies, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	registerValidators()

	engine := gin.New()
	engine.Use(gin.CustomRecovery(recovery(logger)))
	engine.Use(RequestID())
	engine.Use(RequestLogger(logger))
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS(cfg.CORSOrigins))

	api := NewAPI(cfg, deps, logger)
	registerRoutes(engine, api)

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              cfg.EndpointAddrHTTP,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info(context.Background(), "http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
