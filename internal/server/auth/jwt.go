// Package auth issues and verifies the HS256 tokens handed to clients and
// produces one-time login codes.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKind tells the tokens issued during login apart.
type TokenKind string

const (
	// TokenTemp is returned by send-otp. It proves nothing about the caller.
	TokenTemp TokenKind = "temp"
	// TokenSession is the jwt_token returned after a verified OTP.
	TokenSession TokenKind = "session"
	// TokenAccess is carried in the access-token cookie.
	TokenAccess TokenKind = "access"
)

// SessionClaims is the application payload carried by every token.
type SessionClaims struct {
	Kind     TokenKind `json:"typ"`
	UserID   int64     `json:"user_id"`
	Email    string    `json:"email"`
	UserName string    `json:"userName,omitempty"`
}

// Claims combines the registered claims with SessionClaims.
type Claims struct {
	jwt.RegisteredClaims
	SessionClaims
}

// GenerateToken signs claims with secretKey; the token expires after
// validityDuration.
func GenerateToken(claims SessionClaims, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		SessionClaims: claims,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString. An expired token yields
// common.ErrTokenExpired; every other failure yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ParseTokenOfKind is ParseToken restricted to the given kinds. A valid
// token of any other kind yields common.ErrInvalidToken.
func ParseTokenOfKind(tokenString string, secretKey []byte, kinds ...TokenKind) (*Claims, error) {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if claims.Kind == k {
			return claims, nil
		}
	}
	return nil, common.ErrInvalidToken
}

func GetUserIDFromToken(tokenString string, secretKey []byte) (int64, error) {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
