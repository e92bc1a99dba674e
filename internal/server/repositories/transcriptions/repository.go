// Package transcriptions declares the repository contract for transcript
// texts attached to audio files.
package transcriptions

import (
	"context"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Transcription) (*models.Transcription, error)
	// List returns the user's transcripts, newest first; fileID 0 means all files.
	List(ctx context.Context, userID, fileID int64) ([]*models.Transcription, error)
	// Latest returns the newest transcript of a user's file.
	Latest(ctx context.Context, userID, fileID int64) (*models.Transcription, error)
}
