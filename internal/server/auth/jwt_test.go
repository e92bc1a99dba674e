package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	in := SessionClaims{Kind: TokenSession, UserID: 42, Email: "a@b.io", UserName: "Ada Lovelace"}

	tok, err := GenerateToken(in, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, in, claims.SessionClaims)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	id, err := GetUserIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(SessionClaims{UserID: 1}, secret, -1*time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = GetUserIDFromToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(SessionClaims{UserID: 2}, []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RequiresExpiry(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseTokenOfKind(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	temp, err := GenerateToken(SessionClaims{Kind: TokenTemp, UserID: 3}, secret, time.Minute)
	require.NoError(t, err)
	access, err := GenerateToken(SessionClaims{Kind: TokenAccess, UserID: 3}, secret, time.Minute)
	require.NoError(t, err)
	untyped, err := GenerateToken(SessionClaims{UserID: 3}, secret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseTokenOfKind(access, secret, TokenAccess, TokenSession)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)

	_, err = ParseTokenOfKind(temp, secret, TokenAccess, TokenSession)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = ParseTokenOfKind(untyped, secret, TokenAccess, TokenSession)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := GenerateToken(SessionClaims{Kind: TokenAccess}, secret, -time.Second)
	require.NoError(t, err)
	_, err = ParseTokenOfKind(expired, secret, TokenAccess)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}
