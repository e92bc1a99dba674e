// Package common contains shared constants and sentinel errors used across
// AudioScribe components.
package common

const (
	// AccessTokenCookieName carries the short-lived access JWT.
	AccessTokenCookieName = "access-token"
	// RefreshTokenCookieName carries the opaque refresh token.
	RefreshTokenCookieName = "refresh-token"

	// AuthorizationHeaderName is used by non-browser clients instead of cookies.
	AuthorizationHeaderName = "Authorization"
	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName is echoed back on every HTTP response.
	RequestIDHeaderName = "X-Request-ID"
)

// Audio file processing states, seeded in the status table.
const (
	StatusUploaded     = "Uploaded"
	StatusTranscribing = "Transcribing"
	StatusTranscribed  = "Transcribed"
	StatusFailed       = "Failed"
	StatusAnalyzed     = "Analyzed"
)

// Sentiment categories, seeded in the category table.
const (
	CategoryPositive = "Positive"
	CategoryNeutral  = "Neutral"
	CategoryNegative = "Negative"
)
