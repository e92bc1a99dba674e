package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/config"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type LoginService interface {
	SessionChecker
	SendOTP(ctx context.Context, email string) (*services.SendOTPResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
}

type FileService interface {
	Upload(ctx context.Context, actor services.Actor, inputs []services.UploadInput) ([]*models.AudioFile, error)
	List(ctx context.Context, userID int64, q models.FileQuery) ([]*models.AudioFile, error)
	Get(ctx context.Context, userID, fileID int64) (*models.AudioFile, error)
	Delete(ctx context.Context, userID, fileID int64) error
	DownloadURL(ctx context.Context, userID, fileID int64) (string, error)
	ListStatuses(ctx context.Context) ([]*models.Status, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type TranscriptionService interface {
	TranscribeUpload(ctx context.Context, actor services.Actor, fileID *int64, in services.UploadInput) (*services.TranscriptionResult, error)
	TranscribeStored(ctx context.Context, actor services.Actor, fileID int64) (*services.TranscriptionResult, error)
	ListTranscriptions(ctx context.Context, userID, fileID int64) ([]*models.Transcription, error)
}

type SentimentService interface {
	Start(ctx context.Context, actor services.Actor, in services.StartInput) ([]*services.SentimentResult, error)
	List(ctx context.Context, userID int64) ([]*models.SentimentAnalysis, error)
}

type API struct {
	deps   Dependencies
	logger logging.Logger

	secureCookies bool
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAPI(cfg *config.Config, deps Dependencies, logger logging.Logger) *API {
	return &API{
		deps:          deps,
		logger:        logger,
		secureCookies: cfg.SecureCookies,
		accessTTL:     cfg.AccessTokenValidityDuration,
		refreshTTL:    cfg.RefreshTokenValidityDuration,
	}
}

func registerRoutes(r *gin.Engine, api *API) {
	r.GET("/healthz", api.handleHealth)

	register := r.Group("/register")
	{
		register.POST("/createUser", api.handleCreateUser)
		register.GET("/test", api.handleRegisterTest)
	}

	login := r.Group("/login")
	{
		login.POST("/send-otp", api.handleSendOTP)
		login.POST("/verify-otp", api.handleVerifyOTP)
		login.POST("/check-session", api.handleCheckSession)
		login.GET("/check-session", api.handleCheckSession)
		login.POST("/refresh", api.handleRefresh)
		login.POST("/sign-out", api.handleSignOut)
	}

	authenticated := Authenticate(api.deps.Login)

	users := r.Group("/users")
	{
		users.POST("/createUser", api.handleCreateUser)
		users.GET("/me", authenticated, api.handleMe)
	}

	files := r.Group("/uploadedFiles", authenticated)
	{
		files.GET("/getFiles", api.handleListFiles)
		files.GET("/getStatus", api.handleListStatuses)
		files.GET("/getCategories", api.handleListCategories)
		files.POST("/upload", api.handleUpload)
		files.GET("/files/:id", api.handleGetFile)
		files.DELETE("/files/:id", api.handleDeleteFile)
		files.GET("/files/:id/download", api.handleDownloadURL)
	}

	transcribe := r.Group("/transcribe", authenticated)
	{
		transcribe.POST("/transcription", api.handleTranscribeUpload)
		transcribe.POST("/files/:id", api.handleTranscribeStored)
		transcribe.GET("/transcriptions", api.handleListTranscriptions)
	}

	sentiment := r.Group("/sentiment", authenticated)
	{
		sentiment.POST("/start", api.handleStartSentiment)
		sentiment.GET("/results", api.handleListSentiment)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	if a.deps.Ping != nil {
		if err := a.deps.Ping(c.Request.Context()); err != nil {
			a.logger.Warn(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
