package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey = "request_id"
	actorKey     = "actor"
)

// CORS allows credentialed requests from origins. With no origins every
// origin is allowed without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", common.RequestIDHeaderName},
		ExposeHeaders:    []string{common.RequestIDHeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cors.New(cfg)
}

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn(c.Request.Context(), "http request", args...)
			return
		}
		logger.Info(c.Request.Context(), "http request", args...)
	}
}

func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func recovery(logger logging.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, err any) {
		logger.Error(c.Request.Context(), "panic in handler", "error", err, "request_id", c.GetString(requestIDKey))
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
	}
}

// SessionChecker validates access tokens.
type SessionChecker interface {
	CheckSession(token string) (*services.SessionInfo, error)
}

// Authenticate accepts the access-token cookie or an Authorization: Bearer
// header and stores the caller as a services.Actor.
func Authenticate(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := sessions.CheckSession(tokenFromRequest(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":        false,
				"message":        sessionMessage(err),
				"sessionExpired": true,
			})
			return
		}

		c.Set(actorKey, services.Actor{UserID: info.UserID, Email: info.Email})
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(common.AccessTokenCookieName); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader(common.AuthorizationHeaderName); strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
	}
	return ""
}

func actorFrom(c *gin.Context) services.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(services.Actor)
	return actor
}
