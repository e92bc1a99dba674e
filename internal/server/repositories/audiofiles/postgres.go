package audiofiles

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

const selectColumns = `a.file_id, a.user_id, a.file_name, a.file_type, a.file_size, a.size_bytes, a.duration,
		 a.file_path, a.status_id, s.status_name, a.created_timestamp, a.updated_timestamp,
		 COALESCE(a.created_by, ''), COALESCE(a.updated_by, '')`

func (r *PostgresRepository) Create(ctx context.Context, f *models.AudioFile) (*models.AudioFile, error) {
	query :=
		`INSERT INTO audio_file (user_id, file_name, file_type, file_size, size_bytes, duration, file_path, status_id, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING file_id, created_timestamp, updated_timestamp`

	err := r.db.QueryRowContext(ctx, query,
		f.UserID, f.FileName, f.FileType, f.FileSize, f.SizeBytes, f.Duration, f.StorageKey, f.StatusID, f.CreatedBy,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	f.UpdatedBy = f.CreatedBy
	return f, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, fileID int64) (*models.AudioFile, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM audio_file a
		 JOIN status s ON s.status_id = a.status_id
		 WHERE a.user_id = $1 AND a.file_id = $2`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, userID, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64, q models.FileQuery) ([]*models.AudioFile, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM audio_file a
		 JOIN status s ON s.status_id = a.status_id
		 WHERE a.user_id = $1 AND ($2::int = 0 OR a.status_id = $2)
		 ORDER BY a.created_timestamp DESC, a.file_id DESC
		 LIMIT NULLIF($3::int, 0) OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, userID, q.StatusID, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.AudioFile, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, fileID int64, statusID int, updatedBy string) error {
	query :=
		`UPDATE audio_file
		 SET status_id = $2, updated_timestamp = now(), updated_by = $3
		 WHERE file_id = $1`

	res, err := r.db.ExecContext(ctx, query, fileID, statusID, updatedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, fileID int64) (string, error) {
	query :=
		`DELETE FROM audio_file
		 WHERE user_id = $1 AND file_id = $2
		 RETURNING file_path`

	var key string
	if err := r.db.QueryRowContext(ctx, query, userID, fileID).Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return key, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*models.AudioFile, error) {
	f := &models.AudioFile{}
	err := row.Scan(&f.ID, &f.UserID, &f.FileName, &f.FileType, &f.FileSize, &f.SizeBytes, &f.Duration,
		&f.StorageKey, &f.StatusID, &f.StatusName, &f.CreatedAt, &f.UpdatedAt, &f.CreatedBy, &f.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return f, nil
}
