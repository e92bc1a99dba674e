package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	FirstName string `json:"first_name" binding:"omitempty,personname"`
	LastName  string `json:"last_name" binding:"omitempty,personname"`
	Email     string `json:"email_id"`
	Password  string `json:"password"`
	ContactNo string `json:"contact_no" binding:"omitempty,contactno"`
}

func (a *API) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation error",
			"error":   validationMessages(err),
		})
		return
	}

	user, err := a.deps.Users.Register(c.Request.Context(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ContactNo: req.ContactNo,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		a.respondError(c, err, registerMessage(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user_id": user.ID,
	})
}

func registerMessage(err error) string {
	if errors.Is(err, common.ErrorAlreadyExists) {
		return "User already exists"
	}
	return "Internal server error"
}

func (a *API) handleRegisterTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Register route working"})
}

func (a *API) handleMe(c *gin.Context) {
	user, err := a.deps.Users.GetUser(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		a.respondError(c, err, notFoundOr(err, "User not found", "Failed to load profile"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userView(user)})
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

func (a *API) handleSendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Email is required")
		return
	}

	res, err := a.deps.Login.SendOTP(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success":    false,
				"message":    "User not found. Please register first.",
				"userExists": false,
			})
			return
		}
		a.respondError(c, err, "Failed to send OTP. Please try again later.")
		return
	}

	body := gin.H{
		"success":    true,
		"message":    "OTP sent successfully to your email",
		"email":      res.Email,
		"temp_token": res.TempToken,
		"userExists": true,
	}
	if res.DevOTP != "" {
		body["dev_otp"] = res.DevOTP
	}
	c.JSON(http.StatusOK, body)
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (a *API) handleVerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	session, err := a.deps.Login.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			respondMessage(c, http.StatusNotFound, "User not found with the provided email.")
		case errors.Is(err, common.ErrOTPInvalid):
			respondMessage(c, http.StatusBadRequest, "Invalid or expired OTP. Please request a new one.")
		default:
			a.respondError(c, err, "Failed to verify OTP. Please try again later.")
		}
		return
	}

	a.setSessionCookies(c, session)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "OTP verified successfully! Login complete.",
		"jwt_token": session.SessionToken,
		"token":     session.SessionToken,
		"user":      userView(session.User),
	})
}

func (a *API) handleCheckSession(c *gin.Context) {
	info, err := a.deps.Login.CheckSession(tokenFromRequest(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success":        false,
			"message":        sessionMessage(err),
			"sessionExpired": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Session is active",
		"sessionExpired": false,
		"user": gin.H{
			"user_id": info.UserID,
			"email":   info.Email,
		},
		"expires_at": info.ExpiresAt,
	})
}

func (a *API) handleRefresh(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)

	session, err := a.deps.Login.Refresh(c.Request.Context(), token)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			a.clearSessionCookies(c)
			c.JSON(http.StatusUnauthorized, gin.H{
				"success":        false,
				"message":        "Session expired. Please login again.",
				"sessionExpired": true,
			})
			return
		}
		a.respondError(c, err, "Failed to refresh session")
		return
	}

	a.setSessionCookies(c, session)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Session refreshed",
		"jwt_token": session.SessionToken,
		"token":     session.SessionToken,
	})
}

func (a *API) handleSignOut(c *gin.Context) {
	if token, err := c.Cookie(common.RefreshTokenCookieName); err == nil {
		if err := a.deps.Login.SignOut(c.Request.Context(), token); err != nil {
			a.logger.Warn(c.Request.Context(), "sign out failed", "error", err)
		}
	}

	a.clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully."})
}

func (a *API) setSessionCookies(c *gin.Context, s *services.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.AccessTokenCookieName, s.AccessToken, int(a.accessTTL.Seconds()), "/", "", a.secureCookies, true)
	c.SetCookie(common.RefreshTokenCookieName, s.RefreshToken, int(a.refreshTTL.Seconds()), "/", "", a.secureCookies, true)
}

func (a *API) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.AccessTokenCookieName, "", -1, "/", "", a.secureCookies, true)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", "", a.secureCookies, true)
}

func userView(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"contact_no": u.ContactNo,
	}
}

func notFoundOr(err error, notFound, other string) string {
	if errors.Is(err, common.ErrorNotFound) {
		return notFound
	}
	return other
}
