// Package refreshtokens declares the repository contract for opaque refresh
// tokens issued alongside session JWTs.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type Repository interface {
	// Create stores token for userID expiring at now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Consume deletes token and returns the deleted row. It returns
	// common.ErrorNotFound when token is unknown or already consumed, so a
	// token can be exchanged at most once.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes tokens that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
