// Package lookups reads the seeded status and category reference tables.
package lookups

import (
	"context"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type Repository interface {
	Statuses(ctx context.Context) ([]*models.Status, error)
	Categories(ctx context.Context) ([]*models.Category, error)
	// StatusID and CategoryID return common.ErrorNotFound for unknown names.
	StatusID(ctx context.Context, name string) (int, error)
	CategoryID(ctx context.Context, name string) (int, error)
}
