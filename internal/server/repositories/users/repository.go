// Package users declares the repository contract for registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
