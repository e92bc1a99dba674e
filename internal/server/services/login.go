package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/auth"
	"github.com/dmitrijs2005/audioscribe/internal/server/config"
	"github.com/dmitrijs2005/audioscribe/internal/server/mailer"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/repomanager"
)

// generateOTP is a seam for tests.
var generateOTP = auth.GenerateOTP

// SendOTPResult is returned by SendOTP. DevOTP is only set in development.
type SendOTPResult struct {
	Email     string
	TempToken string
	DevOTP    string
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	User             *models.User
	SessionToken     string
	AccessToken      string
	RefreshToken     string
	SessionExpiresAt time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// SessionInfo describes a valid access token.
type SessionInfo struct {
	UserID    int64
	Email     string
	UserName  string
	ExpiresAt time.Time
}

type LoginService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      mailer.Mailer
	logger      logging.Logger

	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	tempTokenValidityDuration    time.Duration
	otpValidityDuration          time.Duration
	otpRetentionDuration         time.Duration
	exposeOTP                    bool

	now func() time.Time
}

func NewLoginService(db *sql.DB, m repomanager.RepositoryManager, mail mailer.Mailer, logger logging.Logger, cfg *config.Config) *LoginService {
	return &LoginService{
		db:                           db,
		repomanager:                  m,
		mailer:                       mail,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		tempTokenValidityDuration:    cfg.TempTokenValidityDuration,
		otpValidityDuration:          cfg.OTPValidityDuration,
		otpRetentionDuration:         cfg.OTPRetentionDuration,
		exposeOTP:                    cfg.IsDevelopment(),
		now:                          time.Now,
	}
}

// SendOTP emails a fresh login code to a registered user. A mail failure is
// logged, not returned, so the code can still be read from the server log
// in development.
func (s *LoginService) SendOTP(ctx context.Context, email string) (*SendOTPResult, error) {
	ctx, span := tracer.Start(ctx, "LoginService.SendOTP")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return nil, common.NewValidationError("Email is required")
	}
	if !common.IsEmail(email) {
		return nil, common.NewValidationError("Please enter a valid email address")
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	code, err := generateOTP()
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.OTPs(s.db).Create(ctx, user.ID, auth.HashOTP(s.jwtSecret, user.ID, code)); err != nil {
		return nil, fmt.Errorf("error storing otp: %w", err)
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("%s - OTP for Login Request", code),
		Body:    otpEmailBody(code, s.otpRetentionDuration),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "otp email failed", "user_id", user.ID, "error", err)
		if s.exposeOTP {
			s.logger.Warn(ctx, "otp for development", "email", user.Email, "otp", code)
		}
	}

	tempToken, err := auth.GenerateToken(auth.SessionClaims{Kind: auth.TokenTemp, UserID: user.ID, Email: user.Email}, s.jwtSecret, s.tempTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	res := &SendOTPResult{Email: user.Email, TempToken: tempToken}
	if s.exposeOTP {
		res.DevOTP = code
	}

	s.logger.Info(ctx, "otp issued", "user_id", user.ID)
	return res, nil
}

func otpEmailBody(code string, validity time.Duration) string {
	return fmt.Sprintf("Dear user,\n\nYour One-Time Password for login is %s.\n"+
		"It is valid for %d minutes. Do not share it with anyone.\n\nAudioScribe",
		code, int(validity.Minutes()))
}

// VerifyOTP consumes the code and opens a session. The code must have been
// issued within the validity window and is deleted in the same transaction
// that stores the refresh token, so it authenticates at most once.
func (s *LoginService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "LoginService.VerifyOTP")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return nil, common.NewValidationError("Email and OTP are required")
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	var session *Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		notBefore := s.now().Add(-s.otpValidityDuration)
		_, err := s.repomanager.OTPs(tx).Consume(ctx, user.ID, auth.HashOTP(s.jwtSecret, user.ID, code), notBefore)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrOTPInvalid
			}
			return fmt.Errorf("error consuming otp: %w", err)
		}

		session, err = s.issueSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, recordError(span, err)
	}

	s.logger.Info(ctx, "otp verified", "user_id", user.ID)
	return session, nil
}

// CheckSession validates an access or session token without touching the
// database. Temp tokens from SendOTP are rejected.
func (s *LoginService) CheckSession(token string) (*SessionInfo, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := auth.ParseTokenOfKind(token, s.jwtSecret, auth.TokenAccess, auth.TokenSession)
	if err != nil {
		return nil, err
	}

	info := &SessionInfo{UserID: claims.UserID, Email: claims.Email, UserName: claims.UserName}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Refresh rotates a refresh token. The old token is consumed and the new
// session issued in one transaction, so concurrent refreshes with the same
// token cannot both succeed.
func (s *LoginService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "LoginService.Refresh")
	defer span.End()

	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}

	var session *Session
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error consuming refresh token: %w", err)
		}

		if token.Expires.Before(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}

		session, err = s.issueSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, recordError(span, err)
	}

	return session, nil
}

// SignOut forgets refreshToken. Unknown or empty tokens are not an error.
func (s *LoginService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

func (s *LoginService) issueSession(ctx context.Context, tx dbx.DBTX, user *models.User) (*Session, error) {
	now := s.now()
	claims := auth.SessionClaims{Kind: auth.TokenSession, UserID: user.ID, Email: user.Email, UserName: user.DisplayName()}

	sessionToken, err := auth.GenerateToken(claims, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	accessToken, err := auth.GenerateToken(auth.SessionClaims{Kind: auth.TokenAccess, UserID: user.ID, Email: user.Email}, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &Session{
		User:             user,
		SessionToken:     sessionToken,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		SessionExpiresAt: now.Add(s.sessionTokenValidityDuration),
		AccessExpiresAt:  now.Add(s.accessTokenValidityDuration),
		RefreshExpiresAt: now.Add(s.refreshTokenValidityDuration),
	}, nil
}
