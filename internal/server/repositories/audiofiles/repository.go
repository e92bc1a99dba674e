// Package audiofiles declares the repository contract for uploaded recording
// metadata. Every read and delete is scoped to the owning user.
package audiofiles

import (
	"context"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.AudioFile) (*models.AudioFile, error)
	Get(ctx context.Context, userID, fileID int64) (*models.AudioFile, error)
	List(ctx context.Context, userID int64, q models.FileQuery) ([]*models.AudioFile, error)
	UpdateStatus(ctx context.Context, fileID int64, statusID int, updatedBy string) error
	// Delete removes the row and returns the storage key of the removed file.
	Delete(ctx context.Context, userID, fileID int64) (string, error)
}
