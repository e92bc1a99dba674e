package lookups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/dbx"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Statuses(ctx context.Context) ([]*models.Status, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status_id, status_name FROM status ORDER BY status_id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Status, 0)
	for rows.Next() {
		s := &models.Status{}
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Categories(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, category_name FROM category ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Category, 0)
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) StatusID(ctx context.Context, name string) (int, error) {
	return r.idByName(ctx, `SELECT status_id FROM status WHERE status_name = $1`, name)
}

func (r *PostgresRepository) CategoryID(ctx context.Context, name string) (int, error) {
	return r.idByName(ctx, `SELECT category_id FROM category WHERE category_name = $1`, name)
}

func (r *PostgresRepository) idByName(ctx context.Context, query, name string) (int, error) {
	var id int
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}
