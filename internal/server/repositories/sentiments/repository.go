// Package sentiments declares the repository contract for sentiment analysis
// results.
package sentiments

import (
	"context"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.SentimentAnalysis) (*models.SentimentAnalysis, error)
	// List returns the user's analyses joined with file and category names.
	List(ctx context.Context, userID int64) ([]*models.SentimentAnalysis, error)
}
