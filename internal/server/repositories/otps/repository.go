// Package otps declares the repository contract for pending login codes.
package otps

import (
	"context"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type Repository interface {
	// Create stores a code hash for userID.
	Create(ctx context.Context, userID int64, codeHash string) (*models.OTP, error)

	// Consume atomically deletes the code matching userID and codeHash that was
	// created at or after notBefore. It returns common.ErrorNotFound when no
	// such code exists, so a code can be consumed at most once.
	Consume(ctx context.Context, userID int64, codeHash string, notBefore time.Time) (*models.OTP, error)

	// DeleteCreatedBefore purges codes created before cutoff and reports how
	// many were removed.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
