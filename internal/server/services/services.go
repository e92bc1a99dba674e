// Package services holds the AudioScribe business logic: registration, OTP
// login and sessions, audio files, transcription and sentiment analysis.
package services

import (
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("audioscribe/services")

// Actor is the authenticated user on whose behalf a call runs. Email is
// recorded in created_by/updated_by columns.
type Actor struct {
	UserID int64
	Email  string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// recordError marks span as failed when err is non-nil and returns err.
func recordError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
